package cli

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/solplay/internal/domain"
)

// NewPlayCmd creates the interactive play command
func NewPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <file|->",
		Short: "Deploy a contract and call its functions interactively",
		Long: `Compile and deploy a single Solidity file, then pick functions to call from
a searchable list. Arguments are prompted for one at a time and validated
against the function's ABI.

The session has no overall deadline; --timeout does not apply. Each chain
request is still bounded by --call-timeout. Press Ctrl+C in the function
list to quit.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Config.NonInteractive {
				return fmt.Errorf("play needs an interactive terminal; use 'solplay run --call' instead")
			}

			source, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			result, err := app.Orchestrator.RunCycle(ctx, source)
			app.Reporter.Stop()
			if err != nil {
				return err
			}
			if result.State != domain.StateDeployed {
				return fmt.Errorf("cycle ended in state %s", result.State)
			}

			contract := result.Contract
			instance := contract.Instance()
			functions := contract.Functions()
			if len(functions) == 0 {
				app.Reporter.Info(fmt.Sprintf("%s has no functions to call", instance.Name))
				return nil
			}

			for {
				method, err := app.Selector.SelectFunction(ctx, functions, fmt.Sprintf("%s at %s", instance.Name, instance.Address.Hex()))
				if err != nil {
					if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
						return nil
					}
					return err
				}

				raw := make([]string, 0, len(method.Inputs))
				cancelled := false
				for _, input := range method.Inputs {
					value, err := app.Selector.PromptArgument(ctx, method, input)
					if err != nil {
						cancelled = true
						break
					}
					raw = append(raw, value)
				}
				if cancelled {
					continue
				}

				// failures are already in the activity log
				if _, err := contract.CallWithStrings(ctx, method.Name, raw); err != nil {
					app.Reporter.Error(err.Error())
				}

				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
		},
	}

	return cmd
}
