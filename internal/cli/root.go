package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/solplay/internal/app"
	"github.com/trebuchet-org/solplay/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// commands that never touch an engine
var noAppCommands = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

// commands that run until the user quits; the overall timeout does not apply
var untimedCommands = map[string]bool{
	"play": true,
}

// commandTimeout returns the overall deadline for a command, zero for none
func commandTimeout(name string, timeout time.Duration) time.Duration {
	if untimedCommands[name] {
		return 0
	}
	return timeout
}

// NewRootCmd creates the root command. Engines started for a command are
// stopped when cobra finalizes, whether or not the command failed.
func NewRootCmd() *cobra.Command {
	var shutdown func()
	cobra.OnFinalize(func() {
		if shutdown != nil {
			shutdown()
			shutdown = nil
		}
	})

	rootCmd := &cobra.Command{
		Use:   "solplay",
		Short: "Compile, deploy and call single-file Solidity contracts",
		Long: `solplay compiles a Solidity source with the compiler build its pragma selects,
deploys the contract to an in-process simulated chain and lets you call its functions.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noAppCommands[cmd.Name()] {
				return nil
			}

			workDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			v := config.SetupViper(workDir, cmd)

			appInstance, cleanup, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			cancel := context.CancelFunc(func() {})
			if timeout := commandTimeout(cmd.Name(), appInstance.Config.Timeout); timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
			}
			shutdown = func() {
				cancel()
				appInstance.Reporter.Stop()
				cleanup()
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().String("fork", "", "Chain ruleset: shanghai, cancun or prague (default cancun)")
	rootCmd.PersistentFlags().String("solc", "", "Use a local solc binary for every build")
	rootCmd.PersistentFlags().String("platform", "", "Native build platform, e.g. linux-amd64")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "Overall command timeout, not applied to play (0 disables)")
	rootCmd.PersistentFlags().Duration("call-timeout", config.DefaultCallTimeout, "Timeout for a single chain request (0 disables)")
	rootCmd.PersistentFlags().String("deployer", "", "Funded account used to deploy and transact")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "info",
		Title: "Information Commands",
	})

	runCmd := NewRunCmd()
	runCmd.GroupID = "main"
	rootCmd.AddCommand(runCmd)

	playCmd := NewPlayCmd()
	playCmd.GroupID = "main"
	rootCmd.AddCommand(playCmd)

	resolveCmd := NewResolveCmd()
	resolveCmd.GroupID = "info"
	rootCmd.AddCommand(resolveCmd)

	buildsCmd := NewBuildsCmd()
	buildsCmd.GroupID = "info"
	rootCmd.AddCommand(buildsCmd)

	versionsCmd := NewVersionsCmd()
	versionsCmd.GroupID = "info"
	rootCmd.AddCommand(versionsCmd)

	accountsCmd := NewAccountsCmd()
	accountsCmd.GroupID = "info"
	rootCmd.AddCommand(accountsCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
