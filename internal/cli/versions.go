package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/solplay/internal/cli/render"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

// NewVersionsCmd creates the versions command
func NewVersionsCmd() *cobra.Command {
	var (
		limit  int
		all    bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List published compiler versions",
		Long: `Fetch the compiler version manifest for this platform and list its releases,
newest first. Builds from the pinned table are marked.`,
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

			result, err := app.ListVersions.Run(cmd.Context(), usecase.ListVersionsParams{
				Limit:          limit,
				IncludeNightly: all,
			})
			if err != nil {
				return err
			}

			return render.NewBuildsRenderer(cmd.OutOrStdout(), outputFormat).RenderVersions(result)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of versions to show (0 for all)")
	cmd.Flags().BoolVar(&all, "all", false, "Include nightly builds")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}
