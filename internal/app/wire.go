//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/solplay/internal/adapters"
	"github.com/trebuchet-org/solplay/internal/config"
	"github.com/trebuchet-org/solplay/internal/logging"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

// InitApp creates a fully wired App instance. The returned cleanup stops
// the compiler and chain engines.
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeploymentOrchestrator,
		usecase.NewResolveVersion,
		usecase.NewListVersions,
		usecase.NewListAccounts,

		// App
		NewApp,
	)
	return nil, nil, nil
}
