package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/solplay/internal/cli/render"
)

// NewAccountsCmd creates the accounts command
func NewAccountsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:          "accounts",
		Short:        "List the funded accounts of the simulated chain",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListAccounts.Run(cmd.Context())
			if err != nil {
				return err
			}

			return render.NewBuildsRenderer(cmd.OutOrStdout(), outputFormat).RenderAccounts(result)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}
