package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoutesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show the model routing table in priority order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			for _, entry := range a.resolver.Entries() {
				match := "prefix"
				if entry.Exact {
					match = "exact"
				}
				secret := "no secret"
				if entry.Kind.RequiresSecret() {
					secret = "secret missing"
					if entry.APIKey != "" {
						secret = "secret set"
					}
				}

				_, _ = fmt.Fprintf(out, "%-28s %-7s %-11s %-8s %-16s %s\n",
					entry.Pattern, match, string(entry.Kind), entry.Name, secret, entry.BaseURL)
			}

			return nil
		},
	}
}
