package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/domain/config"
)

// CycleResult is the outcome of one compile/deploy cycle
type CycleResult struct {
	State       domain.CycleState
	Resolution  *domain.Resolution
	Diagnostics []string
	Contract    *DeployedContract
}

// DeploymentOrchestrator sequences resolution, compilation and deployment of
// a single source file. Running a new cycle discards the previous contract.
// Cycles must not overlap: a second RunCycle started before the first
// returns interleaves its lines in the activity log.
type DeploymentOrchestrator struct {
	resolver VersionResolver
	compiler CompilerBridge
	chain    ChainBridge
	activity ActivityLog
	progress ProgressSink
	deployer common.Address

	mu       sync.Mutex
	state    domain.CycleState
	deployed *DeployedContract
}

// NewDeploymentOrchestrator creates a new orchestrator in the idle state
func NewDeploymentOrchestrator(
	resolver VersionResolver,
	compiler CompilerBridge,
	chain ChainBridge,
	activity ActivityLog,
	progress ProgressSink,
	cfg *config.RuntimeConfig,
) *DeploymentOrchestrator {
	return &DeploymentOrchestrator{
		resolver: resolver,
		compiler: compiler,
		chain:    chain,
		activity: activity,
		progress: progress,
		deployer: common.HexToAddress(cfg.Chain.Deployer),
		state:    domain.StateIdle,
	}
}

// State returns the current cycle state
func (o *DeploymentOrchestrator) State() domain.CycleState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Deployed returns the contract of the last successful cycle, if any
func (o *DeploymentOrchestrator) Deployed() *DeployedContract {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deployed
}

// Reset discards the deployed contract and returns to idle
func (o *DeploymentOrchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = domain.StateIdle
	o.deployed = nil
}

func (o *DeploymentOrchestrator) transition(ctx context.Context, state domain.CycleState, message string) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:   string(state),
		Message: message,
		Spinner: !state.Terminal(),
	})
}

func (o *DeploymentOrchestrator) fail(ctx context.Context, result *CycleResult, state domain.CycleState, err error) (*CycleResult, error) {
	result.State = state
	o.transition(ctx, state, err.Error())
	o.activity.Append("Error: " + err.Error())
	return result, err
}

// RunCycle resolves, compiles and deploys source. Compiler diagnostics end
// the cycle in CompileFailed without an error; every other failure is
// returned alongside the terminal state.
func (o *DeploymentOrchestrator) RunCycle(ctx context.Context, source string) (*CycleResult, error) {
	o.mu.Lock()
	o.deployed = nil
	o.mu.Unlock()

	result := &CycleResult{}

	// Resolve
	o.transition(ctx, domain.StateCompiling, "Resolving compiler version")
	resolution, err := o.resolver.Resolve(source)
	if err != nil {
		return o.fail(ctx, result, domain.StateCompileFailed, err)
	}
	result.Resolution = resolution
	name := resolution.ContractName

	// Compile
	o.activity.Append(fmt.Sprintf("Compiling %s with solc %s", name, resolution.Build.ID))
	o.transition(ctx, domain.StateCompiling, fmt.Sprintf("Compiling %s", name))
	compiled, err := o.compiler.Compile(ctx, resolution.Build.ID, domain.CompileRequest{
		Sources:         map[string]string{name + ".sol": source},
		OutputSelection: domain.DefaultOutputSelection(),
	})
	if err != nil {
		return o.fail(ctx, result, domain.StateCompileFailed, fmt.Errorf("compile %s: %w", name, err))
	}
	if compiled.Failed() {
		result.State = domain.StateCompileFailed
		result.Diagnostics = compiled.Errors
		for _, diag := range compiled.Errors {
			for _, line := range strings.Split(diag, "\n") {
				o.activity.Append(line)
			}
		}
		o.transition(ctx, domain.StateCompileFailed, fmt.Sprintf("%d compiler error(s)", len(compiled.Errors)))
		return result, nil
	}

	artifact, ok := compiled.Contract(name)
	if !ok {
		return o.fail(ctx, result, domain.StateCompileFailed, fmt.Errorf("contract %s missing from compiler output", name))
	}
	contractABI, err := functionABI(artifact.ABI)
	if err != nil {
		return o.fail(ctx, result, domain.StateCompileFailed, fmt.Errorf("invalid ABI for %s: %w", name, err))
	}
	o.transition(ctx, domain.StateCompiled, fmt.Sprintf("Compiled %s", name))
	o.activity.Append(fmt.Sprintf("Compiled %s (%d functions)", name, len(contractABI.Methods)))

	bytecode, err := hexutil.Decode(ensureHexPrefix(artifact.Bytecode))
	if err != nil {
		return o.fail(ctx, result, domain.StateDeployFailed, fmt.Errorf("invalid bytecode for %s: %w", name, err))
	}
	if len(bytecode) == 0 {
		return o.fail(ctx, result, domain.StateDeployFailed, fmt.Errorf("%s has no bytecode; abstract contracts cannot be deployed", name))
	}

	// Deploy
	signer := o.chain.GetSigner(o.deployer)
	o.transition(ctx, domain.StateDeploying, fmt.Sprintf("Deploying %s", name))
	o.activity.Append(fmt.Sprintf("Deploying %s from %s", name, signer.Address().Hex()))

	instance, err := deploy(ctx, signer, bytecode)
	if err != nil {
		return o.fail(ctx, result, domain.StateDeployFailed, fmt.Errorf("deploy %s: %w", name, err))
	}
	instance.Name = name
	instance.Build = resolution.Build.ID
	instance.ABI = *contractABI

	deployed := &DeployedContract{instance: *instance, signer: signer, activity: o.activity}
	o.mu.Lock()
	o.deployed = deployed
	o.mu.Unlock()

	result.State = domain.StateDeployed
	result.Contract = deployed
	o.transition(ctx, domain.StateDeployed, fmt.Sprintf("%s deployed at %s", name, instance.Address.Hex()))
	o.activity.Append(fmt.Sprintf("%s deployed at %s (gas used: %d)", name, instance.Address.Hex(), instance.GasUsed))

	return result, nil
}

func deploy(ctx context.Context, signer Signer, bytecode []byte) (*domain.ContractInstance, error) {
	txHash, err := signer.SendTransaction(ctx, nil, bytecode, nil)
	if err != nil {
		return nil, err
	}
	receipt, err := signer.WaitMined(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("waiting for deployment %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("deployment transaction %s reverted", txHash.Hex())
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("deployment transaction %s created no contract", txHash.Hex())
	}
	code, err := signer.CodeAt(ctx, receipt.ContractAddress)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no code at %s after deployment", receipt.ContractAddress.Hex())
	}

	return &domain.ContractInstance{
		Address:  receipt.ContractAddress,
		Deployer: signer.Address(),
		TxHash:   txHash,
		GasUsed:  receipt.GasUsed,
	}, nil
}

// functionABI keeps only the function entries of a JSON ABI. Entries without
// a type are functions.
func functionABI(raw json.RawMessage) (*abi.ABI, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	functions := lo.Filter(entries, func(entry json.RawMessage, _ int) bool {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(entry, &head); err != nil {
			return false
		}
		return head.Type == "" || head.Type == "function"
	})

	filtered, err := json.Marshal(functions)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(bytes.NewReader(filtered))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}

// DeployedContract invokes the functions of a contract deployed by a cycle
type DeployedContract struct {
	instance domain.ContractInstance
	signer   Signer
	activity ActivityLog
}

// Instance returns the deployment details
func (c *DeployedContract) Instance() domain.ContractInstance {
	return c.instance
}

// Functions returns the callable functions sorted by name
func (c *DeployedContract) Functions() []abi.Method {
	methods := lo.Values(c.instance.ABI.Methods)
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })
	return methods
}

// CallWithStrings parses raw arguments against the function's inputs and calls it
func (c *DeployedContract) CallWithStrings(ctx context.Context, function string, raw []string) (*domain.CallResult, error) {
	method, ok := c.instance.ABI.Methods[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFunction, function)
	}
	args, err := ParseArguments(method.Inputs, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", function, err)
	}
	return c.Call(ctx, function, args...)
}

// Call invokes function. View and pure functions are executed as calls and
// their return values logged; anything else is sent as a transaction and
// its gas usage logged.
func (c *DeployedContract) Call(ctx context.Context, function string, args ...any) (*domain.CallResult, error) {
	method, ok := c.instance.ABI.Methods[function]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFunction, function)
	}
	label := fmt.Sprintf("%s.%s(%s)", c.instance.Name, method.RawName, formatValues(args))

	data, err := c.instance.ABI.Pack(function, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", label, err)
	}

	if method.IsConstant() {
		out, err := c.signer.Call(ctx, c.instance.Address, data)
		if err != nil {
			c.activity.Append(fmt.Sprintf("call %s failed: %v", label, err))
			return nil, err
		}
		values, err := method.Outputs.Unpack(out)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s result: %w", label, err)
		}
		c.activity.Append(fmt.Sprintf("call %s returned: %s", label, formatValues(values)))
		return &domain.CallResult{Function: function, Kind: domain.CallRead, Values: values}, nil
	}

	to := c.instance.Address
	txHash, err := c.signer.SendTransaction(ctx, &to, data, nil)
	if err != nil {
		c.activity.Append(fmt.Sprintf("call %s failed: %v", label, err))
		return nil, err
	}
	receipt, err := c.signer.WaitMined(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		c.activity.Append(fmt.Sprintf("call %s reverted (gas used: %d)", label, receipt.GasUsed))
		return nil, errors.New("transaction " + txHash.Hex() + " reverted")
	}

	c.activity.Append(fmt.Sprintf("call %s gas used: %d", label, receipt.GasUsed))
	return &domain.CallResult{Function: function, Kind: domain.CallWrite, TxHash: txHash, GasUsed: receipt.GasUsed}, nil
}
