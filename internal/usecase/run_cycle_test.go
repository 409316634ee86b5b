package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/solplay/internal/adapters/chain"
	"github.com/trebuchet-org/solplay/internal/adapters/progress"
	"github.com/trebuchet-org/solplay/internal/adapters/resolver"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/domain/config"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

const (
	fooSource = "pragma solidity ^0.8.16; contract Foo { function get() public pure returns (uint) { return 42; } }"

	// Creation code whose runtime returns 42 for any call
	answerBytecode = "600a600c600039600a6000f3602a60005260206000f3"

	fooABI = `[
  {"type":"constructor","inputs":[],"stateMutability":"nonpayable"},
  {"type":"event","name":"Updated","inputs":[{"name":"value","type":"uint256","indexed":false}],"anonymous":false},
  {"type":"function","name":"get","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"pure"},
  {"type":"function","name":"set","inputs":[{"name":"value","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}
]`
)

// MockCompiler is a mock implementation of CompilerBridge
type MockCompiler struct {
	mock.Mock
}

func (m *MockCompiler) Compile(ctx context.Context, buildID domain.BuildID, req domain.CompileRequest) (*domain.CompileResult, error) {
	args := m.Called(ctx, buildID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompileResult), args.Error(1)
}

func (m *MockCompiler) ListVersions(ctx context.Context) ([]domain.BuildDescriptor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BuildDescriptor), args.Error(1)
}

// MockChain is a mock implementation of ChainBridge
type MockChain struct {
	mock.Mock
}

func (m *MockChain) GetAccounts(ctx context.Context) ([]common.Address, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]common.Address), args.Error(1)
}

func (m *MockChain) GetSigner(address common.Address) usecase.Signer {
	args := m.Called(address)
	return args.Get(0).(usecase.Signer)
}

func containsLine(log *progress.MemoryLog, substr string) bool {
	for _, line := range log.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// recordingProgress records the stages it is told about
type recordingProgress struct {
	usecase.NopProgress
	mu     sync.Mutex
	stages []string
}

func (p *recordingProgress) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, event.Stage)
}

func testRuntimeConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Chain: config.ChainConfig{
			Fork:        "cancun",
			CallTimeout: 30 * time.Second,
			Deployer:    chain.DefaultDeployer.Hex(),
		},
	}
}

func newChain(t *testing.T) *chain.Bridge {
	t.Helper()
	bridge, cleanup, err := chain.NewBridge(testRuntimeConfig(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return bridge
}

func newResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	r, err := resolver.New()
	require.NoError(t, err)
	return r
}

func compiledFoo(bytecode string) *domain.CompileResult {
	return &domain.CompileResult{
		Contracts: map[string]map[string]domain.CompiledContract{
			"Foo.sol": {"Foo": {ABI: json.RawMessage(fooABI), Bytecode: bytecode}},
		},
	}
}

type fixture struct {
	compiler     *MockCompiler
	activity     *progress.MemoryLog
	progress     *recordingProgress
	orchestrator *usecase.DeploymentOrchestrator
}

func newFixture(t *testing.T, chainBridge usecase.ChainBridge) *fixture {
	f := &fixture{
		compiler: &MockCompiler{},
		activity: &progress.MemoryLog{},
		progress: &recordingProgress{},
	}
	f.orchestrator = usecase.NewDeploymentOrchestrator(
		newResolver(t), f.compiler, chainBridge, f.activity, f.progress, testRuntimeConfig(),
	)
	return f
}

func TestRunCycle_DeploysAndCalls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newChain(t))

	f.compiler.On("Compile", mock.Anything, domain.BuildID("v0.8.16+commit.07a7930e"), mock.MatchedBy(func(req domain.CompileRequest) bool {
		return req.Sources["Foo.sol"] == fooSource
	})).Return(compiledFoo(answerBytecode), nil).Once()

	result, err := f.orchestrator.RunCycle(ctx, fooSource)
	require.NoError(t, err)

	assert.Equal(t, domain.StateDeployed, result.State)
	assert.Equal(t, domain.StateDeployed, f.orchestrator.State())
	require.NotNil(t, result.Contract)
	assert.Same(t, result.Contract, f.orchestrator.Deployed())

	instance := result.Contract.Instance()
	assert.Equal(t, "Foo", instance.Name)
	assert.Equal(t, chain.DefaultDeployer, instance.Deployer)
	assert.NotEqual(t, common.Address{}, instance.Address)
	assert.NotZero(t, instance.GasUsed)

	// Constructor and event entries are filtered out
	names := make([]string, 0)
	for _, m := range result.Contract.Functions() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"get", "set"}, names)

	call, err := result.Contract.Call(ctx, "get")
	require.NoError(t, err)
	assert.Equal(t, domain.CallRead, call.Kind)
	require.Len(t, call.Values, 1)
	assert.Equal(t, big.NewInt(42), call.Values[0])
	assert.True(t, containsLine(f.activity, "call Foo.get() returned: 42"), "lines: %v", f.activity.Lines())

	write, err := result.Contract.CallWithStrings(ctx, "set", []string{"7"})
	require.NoError(t, err)
	assert.Equal(t, domain.CallWrite, write.Kind)
	assert.Greater(t, write.GasUsed, uint64(21000))
	assert.True(t, containsLine(f.activity, "call Foo.set(7) gas used:"), "lines: %v", f.activity.Lines())

	assert.Equal(t, []string{
		string(domain.StateCompiling),
		string(domain.StateCompiling),
		string(domain.StateCompiled),
		string(domain.StateDeploying),
		string(domain.StateDeployed),
	}, f.progress.stages)
	f.compiler.AssertExpectations(t)
}

func TestRunCycle_CompileDiagnostics(t *testing.T) {
	chainBridge := &MockChain{}
	f := newFixture(t, chainBridge)

	f.compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).Return(&domain.CompileResult{
		Errors: []string{"ParserError: Expected ';' but got '}'\n --> Foo.sol:1:60:"},
	}, nil)

	result, err := f.orchestrator.RunCycle(context.Background(), "pragma solidity ^0.8.16; contract Foo { uint x }")
	require.NoError(t, err)

	assert.Equal(t, domain.StateCompileFailed, result.State)
	assert.Len(t, result.Diagnostics, 1)
	assert.Nil(t, result.Contract)
	assert.True(t, containsLine(f.activity, "ParserError: Expected ';' but got '}'"))
	assert.True(t, containsLine(f.activity, "--> Foo.sol:1:60:"))
	chainBridge.AssertNotCalled(t, "GetSigner", mock.Anything)
}

func TestRunCycle_ResolutionFailures(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{
			name:    "missing pragma",
			source:  "contract Foo { function get() public pure returns (uint) { return 42; } }",
			wantErr: domain.ErrNoPragmaFound,
		},
		{
			name:    "missing contract",
			source:  "pragma solidity ^0.8.0; library L {}",
			wantErr: domain.ErrNoContractFound,
		},
		{
			name:    "unsupported version",
			source:  "pragma solidity >=0.9.0 <0.10.0; contract Foo {}",
			wantErr: domain.ErrNoMatchingVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chainBridge := &MockChain{}
			f := newFixture(t, chainBridge)

			result, err := f.orchestrator.RunCycle(context.Background(), tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.StateCompileFailed, result.State)
			assert.Equal(t, domain.StateCompileFailed, f.orchestrator.State())
			assert.True(t, containsLine(f.activity, "Error:"))

			f.compiler.AssertNotCalled(t, "Compile", mock.Anything, mock.Anything, mock.Anything)
			chainBridge.AssertNotCalled(t, "GetSigner", mock.Anything)
		})
	}
}

func TestRunCycle_EngineFailure(t *testing.T) {
	chainBridge := &MockChain{}
	f := newFixture(t, chainBridge)

	engineErr := &domain.EngineError{Engine: "compiler", Build: "v0.8.16+commit.07a7930e", Err: errors.New("signal: killed")}
	f.compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).Return(nil, engineErr)

	result, err := f.orchestrator.RunCycle(context.Background(), fooSource)
	var target *domain.EngineError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, domain.StateCompileFailed, result.State)
	chainBridge.AssertNotCalled(t, "GetSigner", mock.Anything)
}

func TestRunCycle_AbstractContractIsNotDeployed(t *testing.T) {
	chainBridge := &MockChain{}
	f := newFixture(t, chainBridge)

	f.compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).Return(compiledFoo(""), nil)

	result, err := f.orchestrator.RunCycle(context.Background(), "pragma solidity ^0.8.16; abstract contract Foo { function get() public virtual returns (uint); }")
	require.Error(t, err)
	assert.Equal(t, domain.StateDeployFailed, result.State)
	assert.Contains(t, err.Error(), "no bytecode")
	chainBridge.AssertNotCalled(t, "GetSigner", mock.Anything)
}

func TestRunCycle_ContractMissingFromOutput(t *testing.T) {
	f := newFixture(t, &MockChain{})

	f.compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).Return(&domain.CompileResult{
		Contracts: map[string]map[string]domain.CompiledContract{"Foo.sol": {}},
	}, nil)

	result, err := f.orchestrator.RunCycle(context.Background(), fooSource)
	require.Error(t, err)
	assert.Equal(t, domain.StateCompileFailed, result.State)
}

func TestRunCycle_RerunReplacesContract(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newChain(t))
	f.compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).Return(compiledFoo(answerBytecode), nil)

	first, err := f.orchestrator.RunCycle(ctx, fooSource)
	require.NoError(t, err)
	second, err := f.orchestrator.RunCycle(ctx, fooSource)
	require.NoError(t, err)

	assert.NotEqual(t, first.Contract.Instance().Address, second.Contract.Instance().Address)
	assert.Same(t, second.Contract, f.orchestrator.Deployed())

	f.orchestrator.Reset()
	assert.Equal(t, domain.StateIdle, f.orchestrator.State())
	assert.Nil(t, f.orchestrator.Deployed())
}

func TestDeployedContract_UnknownFunction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newChain(t))
	f.compiler.On("Compile", mock.Anything, mock.Anything, mock.Anything).Return(compiledFoo(answerBytecode), nil)

	result, err := f.orchestrator.RunCycle(ctx, fooSource)
	require.NoError(t, err)

	_, err = result.Contract.Call(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownFunction)

	_, err = result.Contract.CallWithStrings(ctx, "set", []string{"not-a-number"})
	assert.Error(t, err)

	_, err = result.Contract.CallWithStrings(ctx, "set", nil)
	assert.Error(t, err)
}
