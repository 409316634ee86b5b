package domain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CycleState is the position of the orchestrator within one compile/deploy cycle
type CycleState string

const (
	StateIdle          CycleState = "idle"
	StateCompiling     CycleState = "compiling"
	StateCompiled      CycleState = "compiled"
	StateCompileFailed CycleState = "compile_failed"
	StateDeploying     CycleState = "deploying"
	StateDeployed      CycleState = "deployed"
	StateDeployFailed  CycleState = "deploy_failed"
)

// Terminal reports whether a cycle ends in this state
func (s CycleState) Terminal() bool {
	switch s {
	case StateCompileFailed, StateDeployed, StateDeployFailed:
		return true
	}
	return false
}

// ContractInstance is a deployed contract on the simulated chain. Only
// function entries of the ABI are kept.
type ContractInstance struct {
	Name     string         `json:"name" yaml:"name"`
	Address  common.Address `json:"address" yaml:"address"`
	Build    BuildID        `json:"build" yaml:"build"`
	Deployer common.Address `json:"deployer" yaml:"deployer"`
	TxHash   common.Hash    `json:"txHash" yaml:"txHash"`
	GasUsed  uint64         `json:"gasUsed" yaml:"gasUsed"`
	ABI      abi.ABI        `json:"-" yaml:"-"`
}

// CallKind tells read-only calls apart from transactions
type CallKind string

const (
	CallRead  CallKind = "read"
	CallWrite CallKind = "write"
)

// CallResult is the outcome of invoking one contract function
type CallResult struct {
	Function string      `json:"function" yaml:"function"`
	Kind     CallKind    `json:"kind" yaml:"kind"`
	Values   []any       `json:"values,omitempty" yaml:"values,omitempty"`
	TxHash   common.Hash `json:"txHash,omitempty" yaml:"txHash,omitempty"`
	GasUsed  uint64      `json:"gasUsed,omitempty" yaml:"gasUsed,omitempty"`
}
