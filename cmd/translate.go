package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/bnema/lingua-cli/internal/prompt"
	"github.com/spf13/cobra"
)

func newTranslateCmd(a *app) *cobra.Command {
	var model string
	var from string
	var to string
	var register string
	var mode string
	var plain bool

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate or analyze text with a routed model",
		Long:  "translate builds a translation or analysis prompt (translate, sentiment, grammar, comms, culture) and streams the model's reply.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("translate requires text")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if register != "" && !prompt.SupportedContext(register) {
				return fmt.Errorf("unsupported context %q (choose from %s)", register, strings.Join(prompt.Contexts, ", "))
			}

			system, user, err := prompt.Build(prompt.Request{
				Mode:       prompt.Mode(mode),
				SourceLang: from,
				TargetLang: to,
				Context:    register,
				Text:       strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			req := domain.ChatRequest{
				Model: model,
				Messages: []domain.Message{
					{Role: domain.RoleSystem, Content: system},
					{Role: domain.RoleUser, Content: user},
				},
			}

			return streamChat(cmd, a, req, plain)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model identifier to use")
	cmd.Flags().StringVar(&from, "from", "English", "source language")
	cmd.Flags().StringVar(&to, "to", "", "target language (required for translate mode)")
	cmd.Flags().StringVar(&register, "context", "", "cultural register: "+strings.Join(prompt.Contexts, ", "))
	cmd.Flags().StringVar(&mode, "mode", string(prompt.ModeTranslate), "translate, sentiment, grammar, comms, or culture")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable the spinner and styled header")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}
