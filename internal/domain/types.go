package domain

import (
	"encoding/json"
	"fmt"
)

// BuildID names one specific compiler release, e.g. "v0.8.16+commit.07a7930e".
type BuildID string

func (id BuildID) String() string {
	return string(id)
}

// Build is one entry of the fixed table of deployable compiler builds
type Build struct {
	ID      BuildID `json:"id" yaml:"id"`
	Version string  `json:"version" yaml:"version"`
	Major   int     `json:"-" yaml:"-"`
	Minor   int     `json:"-" yaml:"-"`
}

// Resolution is the outcome of mapping a source file onto a build
type Resolution struct {
	Constraint   string `json:"constraint" yaml:"constraint"`
	ContractName string `json:"contractName" yaml:"contractName"`
	Build        Build  `json:"build" yaml:"build"`
}

// BuildDescriptor is one entry of the public compiler version manifest
type BuildDescriptor struct {
	Path        string   `json:"path" yaml:"path"`
	Version     string   `json:"version" yaml:"version"`
	Prerelease  string   `json:"prerelease,omitempty" yaml:"prerelease,omitempty"`
	Build       string   `json:"build" yaml:"build"`
	LongVersion string   `json:"longVersion" yaml:"longVersion"`
	Keccak256   string   `json:"keccak256" yaml:"keccak256"`
	SHA256      string   `json:"sha256" yaml:"sha256"`
	URLs        []string `json:"urls" yaml:"urls"`
}

// ID returns the build identifier for the descriptor
func (d BuildDescriptor) ID() BuildID {
	return BuildID("v" + d.LongVersion)
}

// CompileRequest describes a single compilation. It is built fresh for every compile.
type CompileRequest struct {
	BuildID         BuildID
	Sources         map[string]string
	OutputSelection map[string]map[string][]string
}

// DefaultOutputSelection asks the compiler for ABI and creation bytecode only
func DefaultOutputSelection() map[string]map[string][]string {
	return map[string]map[string][]string{
		"*": {"*": {"abi", "evm.bytecode.object"}},
	}
}

type standardSource struct {
	Content string `json:"content"`
}

type standardInput struct {
	Language string                    `json:"language"`
	Sources  map[string]standardSource `json:"sources"`
	Settings struct {
		OutputSelection map[string]map[string][]string `json:"outputSelection"`
	} `json:"settings"`
}

// StandardJSON renders the request as standard-JSON compiler input
func (r CompileRequest) StandardJSON() ([]byte, error) {
	if len(r.Sources) == 0 {
		return nil, fmt.Errorf("compile request for %s has no sources", r.BuildID)
	}

	in := standardInput{
		Language: "Solidity",
		Sources:  make(map[string]standardSource, len(r.Sources)),
	}
	for name, content := range r.Sources {
		in.Sources[name] = standardSource{Content: content}
	}
	in.Settings.OutputSelection = r.OutputSelection
	if in.Settings.OutputSelection == nil {
		in.Settings.OutputSelection = DefaultOutputSelection()
	}

	return json.Marshal(in)
}

// CompiledContract holds the artifacts needed to deploy one contract
type CompiledContract struct {
	ABI      json.RawMessage `json:"abi" yaml:"-"`
	Bytecode string          `json:"bytecode" yaml:"bytecode"`
}

// CompileResult carries either compiled contracts or diagnostics, never both.
type CompileResult struct {
	Contracts map[string]map[string]CompiledContract `json:"contracts,omitempty"`
	Errors    []string                               `json:"errors,omitempty"`
}

// Failed reports whether the result is the diagnostics variant
func (r *CompileResult) Failed() bool {
	return len(r.Errors) > 0
}

// Contract looks up a compiled contract by name across all source files
func (r *CompileResult) Contract(name string) (CompiledContract, bool) {
	for _, contracts := range r.Contracts {
		if c, ok := contracts[name]; ok {
			return c, true
		}
	}
	return CompiledContract{}, false
}
