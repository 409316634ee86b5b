package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/solplay/internal/cli/render"
)

// NewResolveCmd creates the resolve command
func NewResolveCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve <file|->",
		Short: "Show which compiler build and contract a source selects",
		Long: `Read the version pragma and the first contract of a Solidity file and print
the compiler build it resolves to. No compiler is downloaded.`,
		Args:         cobra.ExactArgs(1),
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

			source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			resolution, err := app.ResolveVersion.Run(source)
			if err != nil {
				return err
			}

			return render.NewBuildsRenderer(cmd.OutOrStdout(), outputFormat).RenderResolution(resolution)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}
