package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/solplay/internal/cli/render"
)

// NewBuildsCmd creates the builds command
func NewBuildsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List the compiler builds contracts are deployed with",
		Long: `List the pinned compiler builds in resolution order. A pragma resolves to the
first build in this list that satisfies it.`,
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

			return render.NewBuildsRenderer(cmd.OutOrStdout(), outputFormat).RenderBuilds(app.ResolveVersion.Builds())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}
