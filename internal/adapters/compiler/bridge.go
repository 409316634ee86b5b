package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/domain/config"
	"golang.org/x/sync/singleflight"
)

const engineName = "compiler"

// handle is a cached, initialised compiler engine for one build
type handle struct {
	engine    *Engine
	build     domain.BuildID
	createdAt time.Time
}

// Bridge owns one compiler engine per build and routes compilations to it.
// Engines are created lazily and shared by every caller asking for the same build.
type Bridge struct {
	log        *slog.Logger
	cfg        config.CompilerConfig
	newRuntime func() Runtime
	fetcher    *ManifestFetcher
	now        func() time.Time

	mu      sync.Mutex
	handles map[domain.BuildID]*handle
	closed  bool
	inits   singleflight.Group

	cacheDir     string
	ownsCacheDir bool
}

// NewBridge creates a compiler bridge backed by native solc builds. The
// returned cleanup stops every engine.
func NewBridge(cfg *config.RuntimeConfig, log *slog.Logger) (*Bridge, func(), error) {
	compilerCfg := cfg.Compiler
	owns := false
	if compilerCfg.CacheDir == "" {
		dir, err := os.MkdirTemp("", "solplay-solc-")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create compiler cache: %w", err)
		}
		compilerCfg.CacheDir = dir
		owns = true
	}

	log = log.With("component", "CompilerBridge")
	b := newBridge(compilerCfg, func() Runtime {
		return NewSolcRuntime(compilerCfg.CacheDir, log)
	}, log)
	b.ownsCacheDir = owns

	return b, b.Close, nil
}

func newBridge(cfg config.CompilerConfig, newRuntime func() Runtime, log *slog.Logger) *Bridge {
	return &Bridge{
		log:        log,
		cfg:        cfg,
		newRuntime: newRuntime,
		fetcher:    NewManifestFetcher(cfg.ManifestURL),
		now:        time.Now,
		handles:    make(map[domain.BuildID]*handle),
		cacheDir:   cfg.CacheDir,
	}
}

// Location returns where the engine loads the given build from
func (b *Bridge) Location(id domain.BuildID) string {
	if b.cfg.SolcPath != "" {
		return b.cfg.SolcPath
	}
	base := strings.TrimRight(b.cfg.BinariesURL, "/")
	return fmt.Sprintf("%s/%s/solc-%s-%s", base, b.cfg.Platform, b.cfg.Platform, id)
}

// Compile runs req on the engine for buildID, initialising it first if needed.
// Compiler diagnostics come back as the Errors variant of the result; a
// returned error always means the engine itself failed.
func (b *Bridge) Compile(ctx context.Context, buildID domain.BuildID, req domain.CompileRequest) (*domain.CompileResult, error) {
	req.BuildID = buildID
	input, err := req.StandardJSON()
	if err != nil {
		return nil, err
	}

	h, err := b.acquire(ctx, buildID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := h.engine.post(ctx, request{Cmd: cmdCompile, Input: input, Version: buildID})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.drop(h)
		return nil, &domain.EngineError{Engine: engineName, Build: buildID, Err: err}
	}
	if resp.Error != "" {
		b.drop(h)
		return nil, &domain.EngineError{Engine: engineName, Build: buildID, Err: errors.New(resp.Error)}
	}

	result, err := parseOutput(resp.Output)
	if err != nil {
		b.drop(h)
		return nil, &domain.EngineError{Engine: engineName, Build: buildID, Err: err}
	}

	b.log.Debug("compiled", "version", buildID, "failed", result.Failed(), "duration", time.Since(start))
	return result, nil
}

// acquire returns a ready handle, starting at most one initialisation per build
func (b *Bridge) acquire(ctx context.Context, id domain.BuildID) (*handle, error) {
	if h, err := b.cached(id); h != nil || err != nil {
		return h, err
	}

	ch := b.inits.DoChan(string(id), func() (any, error) {
		// Initialisation is shared, so one caller giving up must not abort it
		return b.initHandle(context.WithoutCancel(ctx), id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*handle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// cached returns the live handle for id. Stale handles are evicted.
func (b *Bridge) cached(id domain.BuildID) (*handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, domain.ErrEngineClosed
	}
	h, ok := b.handles[id]
	if !ok {
		return nil, nil
	}
	if b.cfg.MaxHandleAge > 0 && b.now().Sub(h.createdAt) > b.cfg.MaxHandleAge {
		b.log.Debug("replacing stale compiler engine", "version", id, "age", b.now().Sub(h.createdAt))
		delete(b.handles, id)
		go h.engine.Close()
		return nil, nil
	}
	return h, nil
}

func (b *Bridge) initHandle(ctx context.Context, id domain.BuildID) (*handle, error) {
	// A flight that finished just before this one started may have stored a handle
	if h, err := b.cached(id); h != nil || err != nil {
		return h, err
	}

	start := time.Now()
	engine := newEngine(b.newRuntime(), b.fetcher, b.log.With("version", id))

	resp, err := engine.post(ctx, request{Cmd: cmdInitSolc, Location: b.Location(id), Version: id})
	if err == nil && resp.Error != "" {
		err = errors.New(resp.Error)
	}
	if err != nil {
		engine.Close()
		return nil, &domain.EngineError{Engine: engineName, Build: id, Err: err}
	}

	h := &handle{engine: engine, build: id, createdAt: b.now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		go engine.Close()
		return nil, domain.ErrEngineClosed
	}
	b.handles[id] = h

	b.log.Debug("compiler engine ready", "version", id, "duration", time.Since(start))
	return h, nil
}

// drop evicts h so the next call for its build starts a fresh engine
func (b *Bridge) drop(h *handle) {
	b.mu.Lock()
	if cur, ok := b.handles[h.build]; ok && cur == h {
		delete(b.handles, h.build)
	}
	b.mu.Unlock()

	b.log.Debug("dropping compiler engine", "version", h.build)
	h.engine.Close()
}

// ListVersions asks a short-lived engine for the public build manifest
func (b *Bridge) ListVersions(ctx context.Context) ([]domain.BuildDescriptor, error) {
	engine := newEngine(nil, b.fetcher, b.log)
	defer engine.Close()

	resp, err := engine.post(ctx, request{Cmd: cmdFetchVersions})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVersionListUnavailable, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrVersionListUnavailable, resp.Error)
	}

	return resp.Builds, nil
}

// Loaded returns the builds that currently have a ready engine
func (b *Bridge) Loaded() []domain.BuildID {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]domain.BuildID, 0, len(b.handles))
	for id := range b.handles {
		ids = append(ids, id)
	}
	return ids
}

// Close stops every engine and removes the session cache dir if the bridge created it
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	handles := b.handles
	b.handles = make(map[domain.BuildID]*handle)
	b.mu.Unlock()

	for _, h := range handles {
		h.engine.Close()
	}

	if b.ownsCacheDir && b.cacheDir != "" {
		if err := os.RemoveAll(b.cacheDir); err != nil {
			b.log.Warn("failed to remove compiler cache", "dir", b.cacheDir, "error", err)
		}
	}
}
