package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// SolcRuntime runs a native solc binary in standard-JSON mode
type SolcRuntime struct {
	log      *slog.Logger
	cacheDir string
	client   *http.Client
	binary   string
}

// NewSolcRuntime creates a runtime that downloads builds into cacheDir
func NewSolcRuntime(cacheDir string, log *slog.Logger) *SolcRuntime {
	return &SolcRuntime{
		log:      log,
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Load resolves location to an executable. Remote builds are downloaded once
// per cache dir.
func (r *SolcRuntime) Load(ctx context.Context, location string) error {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		info, err := os.Stat(location)
		if err != nil {
			return fmt.Errorf("solc binary not found: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("solc binary %s is a directory", location)
		}
		r.binary = location
		return nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("invalid compiler location %q: %w", location, err)
	}
	dest := filepath.Join(r.cacheDir, path.Base(u.Path))

	if _, err := os.Stat(dest); err == nil {
		r.log.Debug("using cached compiler", "path", dest)
		r.binary = dest
		return nil
	}

	start := time.Now()
	if err := r.download(ctx, location, dest); err != nil {
		return err
	}
	r.log.Debug("downloaded compiler", "url", location, "path", dest, "duration", time.Since(start))

	r.binary = dest
	return nil
}

func (r *SolcRuntime) download(ctx context.Context, location, dest string) error {
	if err := os.MkdirAll(r.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create compiler cache: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("download compiler: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download compiler: server returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(r.cacheDir, ".solc-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("download compiler: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0755); err != nil {
		return fmt.Errorf("failed to make compiler executable: %w", err)
	}

	return os.Rename(tmp.Name(), dest)
}

// Compile feeds input to solc on stdin and returns its standard-JSON output
func (r *SolcRuntime) Compile(ctx context.Context, input []byte) ([]byte, error) {
	if r.binary == "" {
		return nil, fmt.Errorf("compiler not loaded")
	}

	cmd := exec.CommandContext(ctx, r.binary, "--standard-json")
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("solc failed: %w\nOutput: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}
