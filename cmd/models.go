package cmd

import (
	"fmt"

	chatrender "github.com/bnema/lingua-cli/internal/adapters/render/chat"
	"github.com/bnema/lingua-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the configured model catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			for _, model := range a.cfg.Models {
				_, _ = fmt.Fprintln(out, model)
			}

			if !local {
				return nil
			}

			for _, entry := range a.resolver.Entries() {
				if entry.Kind != domain.KindLocal {
					continue
				}

				models, err := a.ollama.ListModels(cmd.Context(), entry.BaseURL)
				if err != nil {
					return fmt.Errorf("list local models (%s): %w", entry.Name, err)
				}

				_, _ = fmt.Fprintln(out, chatrender.MetaLine(fmt.Sprintf("local (%s):", entry.Name)))
				for _, model := range models {
					_, _ = fmt.Fprintln(out, model.Name)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "also query local Ollama servers for pulled models")

	return cmd
}
