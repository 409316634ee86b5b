package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNoPragmaFound is returned when the source has no `pragma solidity` line
	ErrNoPragmaFound = errors.New("no pragma solidity found")

	// ErrNoContractFound is returned when the source declares no contract
	ErrNoContractFound = errors.New("no contract declaration found")

	// ErrNoMatchingVersion is returned when no known build satisfies the pragma
	ErrNoMatchingVersion = errors.New("no matching compiler version")

	// ErrEngineNotReady is returned when an engine has not finished (or failed) initialization
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrEngineClosed is returned when a request is posted to a stopped engine
	ErrEngineClosed = errors.New("engine closed")

	// ErrVersionListUnavailable is returned when the compiler manifest cannot be fetched or parsed
	ErrVersionListUnavailable = errors.New("compiler version list unavailable")

	// ErrCallTimeout is returned when a chain call receives no reply in time
	ErrCallTimeout = errors.New("engine call timed out")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrUnknownFunction is returned when calling a function the contract ABI does not expose
	ErrUnknownFunction = errors.New("unknown function")
)

// ResolutionError wraps a failure to map a source file onto a compiler build.
type ResolutionError struct {
	Constraint string
	Err        error
}

func (e *ResolutionError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("resolve compiler version: %v", e.Err)
	}
	return fmt.Sprintf("resolve compiler version for %q: %v", e.Constraint, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// EngineError reports a transport failure of a background engine. The affected
// handle must not be reused.
type EngineError struct {
	Engine string
	Build  BuildID
	Err    error
}

func (e *EngineError) Error() string {
	if e.Build != "" {
		return fmt.Sprintf("%s engine (%s): %v", e.Engine, e.Build, e.Err)
	}
	return fmt.Sprintf("%s engine: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// RPCError is an error reply produced by the simulated chain for a single request.
type RPCError struct {
	Method  string
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}
