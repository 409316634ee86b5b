package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/solplay/internal/adapters/chain"
	"github.com/trebuchet-org/solplay/internal/adapters/compiler"
	"github.com/trebuchet-org/solplay/internal/adapters/interactive"
	"github.com/trebuchet-org/solplay/internal/adapters/progress"
	"github.com/trebuchet-org/solplay/internal/adapters/resolver"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

// ResolverSet provides the pinned build table
var ResolverSet = wire.NewSet(
	resolver.New,
	wire.Bind(new(usecase.VersionResolver), new(*resolver.Resolver)),
)

// CompilerSet provides the compiler engine bridge
var CompilerSet = wire.NewSet(
	compiler.NewBridge,
	wire.Bind(new(usecase.CompilerBridge), new(*compiler.Bridge)),
)

// ChainSet provides the simulated chain bridge
var ChainSet = wire.NewSet(
	chain.NewBridge,
	wire.Bind(new(usecase.ChainBridge), new(*chain.Bridge)),
)

// ProgressSet provides the terminal reporter for progress and activity
var ProgressSet = wire.NewSet(
	progress.NewSpinnerProgressReporter,
	wire.Bind(new(usecase.ProgressSink), new(*progress.SpinnerProgressReporter)),
	wire.Bind(new(usecase.ActivityLog), new(*progress.SpinnerProgressReporter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.FunctionSelector), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ResolverSet,
	CompilerSet,
	ChainSet,
	ProgressSet,
	InteractiveSet,
)
