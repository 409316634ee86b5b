package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/solplay/internal/domain"
)

// VersionResolver maps source text onto a compiler build
type VersionResolver interface {
	Resolve(source string) (*domain.Resolution, error)
	Builds() []domain.Build
}

// CompilerBridge compiles sources on background compiler engines
type CompilerBridge interface {
	// Compile returns the Errors variant for compiler diagnostics and an
	// error only when the engine itself failed
	Compile(ctx context.Context, buildID domain.BuildID, req domain.CompileRequest) (*domain.CompileResult, error)
	ListVersions(ctx context.Context) ([]domain.BuildDescriptor, error)
}

// ChainBridge gives access to the simulated chain
type ChainBridge interface {
	GetAccounts(ctx context.Context) ([]common.Address, error)
	GetSigner(address common.Address) Signer
}

// Signer transacts on the simulated chain as one account
type Signer interface {
	Address() common.Address
	// SendTransaction submits a transaction; a nil recipient creates a contract
	SendTransaction(ctx context.Context, to *common.Address, data []byte, value *big.Int) (common.Hash, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
}

// ActivityLog receives the ordered lines shown to the user for a cycle
type ActivityLog interface {
	Append(line string)
}

// FunctionSelector handles interactive selection of contract functions
type FunctionSelector interface {
	SelectFunction(ctx context.Context, methods []abi.Method, prompt string) (*abi.Method, error)
	PromptArgument(ctx context.Context, method *abi.Method, arg abi.Argument) (string, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// NopActivityLog discards every line
type NopActivityLog struct{}

func (NopActivityLog) Append(string) {}
