package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/solplay/internal/cli/render"
	"github.com/trebuchet-org/solplay/internal/domain"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		calls  []string
		format string
	)

	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Compile and deploy a contract, then run calls against it",
		Long: `Compile a single Solidity file with the compiler build its pragma selects,
deploy the first contract it declares to the simulated chain and optionally
call its functions.

View and pure functions are executed as calls and their return values are
printed. Other functions are sent as transactions and their gas usage is
printed.

Examples:
  # Deploy a contract
  solplay run Counter.sol

  # Deploy and call functions in order
  solplay run Counter.sol --call set:42 --call get

  # Read the source from stdin and print JSON
  cat Counter.sol | solplay run - --call get --format json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			specs, err := parseCallSpecs(calls)
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

			app.Reporter.SetQuiet(outputFormat.Structured())

			ctx := cmd.Context()
			result, runErr := app.Orchestrator.RunCycle(ctx, source)

			var callResults []*domain.CallResult
			if runErr == nil && result.Contract != nil {
				for _, spec := range specs {
					callResult, err := result.Contract.CallWithStrings(ctx, spec.Function, spec.Args)
					if err != nil {
						runErr = err
						break
					}
					callResults = append(callResults, callResult)
				}
			}
			app.Reporter.Stop()

			output := render.NewCycleOutput(result, callResults, app.Reporter.Lines(), runErr)
			if err := render.NewCycleRenderer(cmd.OutOrStdout(), outputFormat).Render(output); err != nil {
				return err
			}

			if runErr != nil {
				return runErr
			}
			if result.State != domain.StateDeployed {
				return fmt.Errorf("cycle ended in state %s", result.State)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&calls, "call", "c", nil, "Call a function after deploying (format: fn or fn:arg,arg; can be used multiple times)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}
