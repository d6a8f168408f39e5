package cmd

import (
	"fmt"
	"os"

	chatrender "github.com/bnema/lingua-cli/internal/adapters/render/chat"
	"github.com/spf13/cobra"
)

func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, chatrender.ErrorLine(err))
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lingua",
		Short:         "lingua: translation chat across watsonx, hosted, and local models",
		Long:          "lingua routes translation and text-analysis chat requests to IBM watsonx.ai, OpenAI-compatible hosted APIs, or a local Ollama server, streaming responses to the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(app),
		newTranslateCmd(app),
		newModelsCmd(app),
		newRoutesCmd(app),
	)

	return rootCmd
}
