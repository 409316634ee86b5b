package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/trebuchet-org/solplay/internal/domain"
)

// Engine protocol commands
const (
	cmdInitSolc      = "init-solc"
	cmdCompile       = "compile"
	cmdFetchVersions = "fetch-compiler-versions"
)

// request is a message posted to an engine mailbox. Only plain values cross
// the boundary.
type request struct {
	Cmd      string          `json:"cmd"`
	Location string          `json:"location,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	Version  domain.BuildID  `json:"version,omitempty"`

	reply chan response
}

// response is the single reply an engine produces for a request
type response struct {
	Cmd    string                   `json:"cmd"`
	Output json.RawMessage          `json:"output,omitempty"`
	Input  json.RawMessage          `json:"input,omitempty"`
	Builds []domain.BuildDescriptor `json:"builds,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// Runtime is the compiler implementation hosted by an engine
type Runtime interface {
	// Load prepares the compiler found at location (URL or local path)
	Load(ctx context.Context, location string) error
	// Compile runs one standard-JSON compilation
	Compile(ctx context.Context, input []byte) ([]byte, error)
}

// Engine is a background worker owning one compiler runtime. It handles one
// message at a time.
type Engine struct {
	log     *slog.Logger
	runtime Runtime
	fetcher *ManifestFetcher

	mailbox chan request
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	loaded bool
}

func newEngine(runtime Runtime, fetcher *ManifestFetcher, log *slog.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		log:     log,
		runtime: runtime,
		fetcher: fetcher,
		mailbox: make(chan request),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Engine) run() {
	defer close(e.stopped)
	for {
		select {
		case req := <-e.mailbox:
			req.reply <- e.handle(req)
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Engine) handle(req request) response {
	switch req.Cmd {
	case cmdInitSolc:
		if e.runtime == nil {
			return response{Cmd: req.Cmd, Error: "no compiler runtime"}
		}
		e.log.Debug("loading compiler", "version", req.Version, "location", req.Location)
		if err := e.runtime.Load(e.ctx, req.Location); err != nil {
			return response{Cmd: req.Cmd, Error: err.Error()}
		}
		e.loaded = true
		return response{Cmd: req.Cmd}

	case cmdCompile:
		if !e.loaded {
			return response{Cmd: req.Cmd, Input: req.Input, Error: "compiler not loaded"}
		}
		out, err := e.runtime.Compile(e.ctx, req.Input)
		if err != nil {
			return response{Cmd: req.Cmd, Input: req.Input, Error: err.Error()}
		}
		return response{Cmd: req.Cmd, Output: out, Input: req.Input}

	case cmdFetchVersions:
		if e.fetcher == nil {
			return response{Cmd: req.Cmd, Error: "no manifest source"}
		}
		builds, err := e.fetcher.Fetch(e.ctx)
		if err != nil {
			return response{Cmd: req.Cmd, Error: err.Error()}
		}
		return response{Cmd: req.Cmd, Builds: builds}
	}

	return response{Cmd: req.Cmd, Error: fmt.Sprintf("unknown command %q", req.Cmd)}
}

// post delivers req and waits for its reply. The wait is bounded by ctx,
// but the engine finishes the work regardless.
func (e *Engine) post(ctx context.Context, req request) (response, error) {
	req.reply = make(chan response, 1)

	select {
	case e.mailbox <- req:
	case <-e.stopped:
		return response{}, domain.ErrEngineClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-e.stopped:
		return response{}, domain.ErrEngineClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// Close stops the engine and aborts any running compiler process
func (e *Engine) Close() {
	e.once.Do(func() {
		e.cancel()
		<-e.stopped
	})
}
