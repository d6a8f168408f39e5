package cmd

import (
	"fmt"
	"strings"

	chatrender "github.com/bnema/lingua-cli/internal/adapters/render/chat"
	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	var model string
	var system string
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Send a chat message to a model and stream the reply",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("chat requires a message")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			messages := make([]domain.Message, 0, 2)
			if system != "" {
				messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
			}
			messages = append(messages, domain.Message{Role: domain.RoleUser, Content: strings.Join(args, " ")})

			return streamChat(cmd, a, domain.ChatRequest{Model: model, Messages: messages}, plain)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model identifier to chat with")
	cmd.Flags().StringVar(&system, "system", "", "optional system prompt")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the spinner and styled header")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

// streamChat streams one request to the terminal. Partial output already
// written stays on screen when the stream fails; the error is rendered in
// place of further content by Execute.
func streamChat(cmd *cobra.Command, a *app, req domain.ChatRequest, plain bool) error {
	out := cmd.OutOrStdout()
	sink := chatrender.NewSink(out)

	if plain {
		err := a.dispatcher.Dispatch(cmd.Context(), req, sink)
		finishStream(cmd, sink.Started())
		return err
	}

	_, _ = fmt.Fprintln(out, chatrender.Header(req.Model))
	err := streamWithSpinner(cmd.Context(), a, req, sink, cmd.ErrOrStderr(), "waiting for "+req.Model)
	finishStream(cmd, sink.Started())
	return err
}

func finishStream(cmd *cobra.Command, started bool) {
	if started {
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}
}
