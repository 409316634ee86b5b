package app

import (
	"github.com/trebuchet-org/solplay/internal/adapters/progress"
	"github.com/trebuchet-org/solplay/internal/domain/config"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Selector usecase.FunctionSelector
	Reporter *progress.SpinnerProgressReporter

	// Use cases
	Orchestrator   *usecase.DeploymentOrchestrator
	ResolveVersion *usecase.ResolveVersion
	ListVersions   *usecase.ListVersions
	ListAccounts   *usecase.ListAccounts
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	selector usecase.FunctionSelector,
	reporter *progress.SpinnerProgressReporter,
	orchestrator *usecase.DeploymentOrchestrator,
	resolveVersion *usecase.ResolveVersion,
	listVersions *usecase.ListVersions,
	listAccounts *usecase.ListAccounts,
) (*App, error) {
	return &App{
		Config:         cfg,
		Selector:       selector,
		Reporter:       reporter,
		Orchestrator:   orchestrator,
		ResolveVersion: resolveVersion,
		ListVersions:   listVersions,
		ListAccounts:   listAccounts,
	}, nil
}
