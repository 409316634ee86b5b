package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	WorkDir string

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	Compiler CompilerConfig
	Chain    ChainConfig
}

// CompilerConfig controls where compiler builds come from and how long
// compiler engines are kept
type CompilerConfig struct {
	Platform    string // e.g. linux-amd64, macosx-amd64
	BinariesURL string // base URL of the native build mirror
	ManifestURL string // version manifest (list.json)
	CacheDir    string // session download dir; empty means a temp dir owned by the session
	SolcPath    string // local solc binary used for every build when set

	// MaxHandleAge is the age after which a compiler engine is replaced.
	// Effectively permanent for a session.
	MaxHandleAge time.Duration
}

// ChainConfig controls the simulated chain engine
type ChainConfig struct {
	Fork        string        // ruleset: shanghai, cancun, prague
	CallTimeout time.Duration // upper bound for a single bridge call; 0 disables
	Deployer    string        // funded account used to deploy and transact
}
