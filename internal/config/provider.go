package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/domain/config"
)

const (
	DefaultBinariesURL  = "https://binaries.soliditylang.org"
	DefaultFork         = "cancun"
	DefaultCallTimeout  = 30 * time.Second
	DefaultTimeout      = 5 * time.Minute
	DefaultDeployer     = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	DefaultMaxHandleAge = 60_000_000 * time.Second
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	workDir := v.GetString("work_dir")
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		WorkDir:        workDir,
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Timeout:        v.GetDuration("timeout"),
		Compiler: config.CompilerConfig{
			Platform:     v.GetString("compiler.platform"),
			BinariesURL:  strings.TrimSuffix(v.GetString("compiler.binaries_url"), "/"),
			ManifestURL:  v.GetString("compiler.manifest_url"),
			CacheDir:     v.GetString("compiler.cache_dir"),
			SolcPath:     v.GetString("compiler.solc_path"),
			MaxHandleAge: v.GetDuration("compiler.max_handle_age"),
		},
		Chain: config.ChainConfig{
			Fork:        strings.ToLower(v.GetString("chain.fork")),
			CallTimeout: v.GetDuration("chain.call_timeout"),
			Deployer:    v.GetString("chain.deployer"),
		},
	}

	if cfg.Compiler.Platform == "" {
		cfg.Compiler.Platform = DefaultPlatform(runtime.GOOS, runtime.GOARCH)
	}
	if cfg.Compiler.ManifestURL == "" {
		cfg.Compiler.ManifestURL = fmt.Sprintf("%s/%s/list.json", cfg.Compiler.BinariesURL, cfg.Compiler.Platform)
	}
	if cfg.Compiler.SolcPath != "" && !filepath.IsAbs(cfg.Compiler.SolcPath) {
		cfg.Compiler.SolcPath = filepath.Join(workDir, cfg.Compiler.SolcPath)
	}

	if !common.IsHexAddress(cfg.Chain.Deployer) {
		return nil, fmt.Errorf("chain.deployer %q: %w", cfg.Chain.Deployer, domain.ErrInvalidAddress)
	}
	if cfg.Chain.CallTimeout < 0 {
		return nil, fmt.Errorf("chain.call_timeout must not be negative, got %s", cfg.Chain.CallTimeout)
	}
	if cfg.Compiler.MaxHandleAge <= 0 {
		return nil, fmt.Errorf("compiler.max_handle_age must be positive, got %s", cfg.Compiler.MaxHandleAge)
	}

	return cfg, nil
}

// DefaultPlatform maps GOOS/GOARCH to the native build directory name.
// Apple silicon uses the macosx-amd64 universal builds.
func DefaultPlatform(goos, goarch string) string {
	switch goos {
	case "darwin":
		return "macosx-amd64"
	case "windows":
		return "windows-amd64"
	case "linux":
		if goarch == "arm64" {
			return "linux-arm64"
		}
		return "linux-amd64"
	default:
		return goos + "-" + goarch
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(workDir string, cmd *cobra.Command) *viper.Viper {
	loadEnvFiles(workDir)

	v := viper.New()

	// Set up config file
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(workDir, ".solplay"))

	// Set up environment variables
	v.SetEnvPrefix("SOLPLAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("work_dir", workDir)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("compiler.platform", "")
	v.SetDefault("compiler.binaries_url", DefaultBinariesURL)
	v.SetDefault("compiler.manifest_url", "")
	v.SetDefault("compiler.cache_dir", "")
	v.SetDefault("compiler.solc_path", "")
	v.SetDefault("compiler.max_handle_age", DefaultMaxHandleAge.String())
	v.SetDefault("chain.fork", DefaultFork)
	v.SetDefault("chain.call_timeout", DefaultCallTimeout.String())
	v.SetDefault("chain.deployer", DefaultDeployer)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return
			}
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

// flagKeys maps global flags to their config keys
var flagKeys = map[string]string{
	"debug":           "debug",
	"non-interactive": "non_interactive",
	"timeout":         "timeout",
	"fork":            "chain.fork",
	"solc":            "compiler.solc_path",
	"call-timeout":    "chain.call_timeout",
	"deployer":        "chain.deployer",
	"platform":        "compiler.platform",
}

// loadEnvFiles loads .env files without overriding variables already set
func loadEnvFiles(workDir string) {
	envFiles := []string{
		filepath.Join(workDir, ".env"),
		filepath.Join(workDir, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}
