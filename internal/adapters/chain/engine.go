package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/params"
	"github.com/trebuchet-org/solplay/internal/domain"
)

// Supported rulesets
const (
	ForkShanghai = "shanghai"
	ForkCancun   = "cancun"
	ForkPrague   = "prague"
)

// Engine hosts a simulated chain on its own goroutine. Messages are handled
// strictly in arrival order, so requests posted right after init wait for it.
type Engine struct {
	log *slog.Logger

	inbox   chan message
	outbox  chan result
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	// owned by the engine goroutine
	backend  *simulated.Backend
	client   simulated.Client
	accounts []devAccount
	keys     map[common.Address]devAccount
	sent     map[common.Hash]struct{}
}

// NewEngine starts an engine with no chain. Post an init message to create one.
func NewEngine(log *slog.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		log:     log.With("component", "ChainEngine"),
		inbox:   make(chan message, 64),
		outbox:  make(chan result, 64),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go e.run()
	return e
}

// Post queues msg for the engine
func (e *Engine) Post(ctx context.Context, msg message) error {
	select {
	case e.inbox <- msg:
		return nil
	case <-e.stopped:
		return domain.ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results delivers every reply the engine produces
func (e *Engine) Results() <-chan result {
	return e.outbox
}

// Close stops the engine and tears down its chain
func (e *Engine) Close() {
	e.once.Do(func() {
		e.cancel()
		<-e.stopped
	})
}

func (e *Engine) run() {
	defer close(e.stopped)
	defer e.shutdown()

	for {
		select {
		case msg := <-e.inbox:
			e.handle(msg)
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Engine) handle(msg message) {
	switch msg.Cmd {
	case cmdInit:
		if err := e.init(msg.Fork); err != nil {
			e.log.Error("failed to start simulated chain", "fork", msg.Fork, "error", err)
		}
	case cmdSendAsync:
		e.emit(e.sendAsync(msg))
	default:
		e.log.Warn("ignoring unknown message", "cmd", msg.Cmd)
	}
}

func (e *Engine) emit(res result) {
	select {
	case e.outbox <- res:
	case <-e.ctx.Done():
	}
}

// init replaces any existing chain with a fresh one for fork. On failure
// the engine is left without a chain.
func (e *Engine) init(fork string) (err error) {
	e.shutdown()

	chainConfig, err := chainConfigFor(fork)
	if err != nil {
		return err
	}
	accounts, err := loadDevAccounts()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simulated backend panicked: %v", r)
		}
	}()

	backend := simulated.NewBackend(genesisAlloc(accounts), func(_ *node.Config, ethConf *ethconfig.Config) {
		ethConf.Genesis.Config = chainConfig
	})

	e.backend = backend
	e.client = backend.Client()
	e.accounts = accounts
	e.sent = make(map[common.Hash]struct{})
	e.keys = make(map[common.Address]devAccount, len(accounts))
	for _, acc := range accounts {
		e.keys[acc.address] = acc
	}

	e.log.Debug("simulated chain ready", "fork", fork, "chainId", chainConfig.ChainID, "accounts", len(accounts))
	return nil
}

func (e *Engine) shutdown() {
	if e.backend == nil {
		return
	}
	if err := e.backend.Close(); err != nil {
		e.log.Warn("failed to close simulated chain", "error", err)
	}
	e.backend = nil
	e.client = nil
	e.accounts = nil
	e.keys = nil
	e.sent = nil
}

func (e *Engine) sendAsync(msg message) result {
	res := result{Cmd: cmdSendAsyncResult, Stamp: msg.Stamp}
	if e.client == nil {
		res.Error = errProviderNotInstantiated
		return res
	}

	var q Query
	if err := json.Unmarshal(msg.Query, &q); err != nil {
		res.Error = fmt.Sprintf("invalid query: %v", err)
		return res
	}

	value, err := e.dispatch(e.ctx, q)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	raw, err := json.Marshal(value)
	if err != nil {
		res.Error = fmt.Sprintf("failed to encode %s result: %v", q.Method, err)
		return res
	}
	res.Result = raw
	return res
}

// chainConfigFor returns the dev chain config with forks after the requested
// ruleset switched off
func chainConfigFor(fork string) (*params.ChainConfig, error) {
	cfg := *params.AllDevChainProtocolChanges

	switch strings.ToLower(strings.TrimSpace(fork)) {
	case ForkPrague:
	case ForkCancun, "":
		cfg.PragueTime = nil
	case ForkShanghai:
		cfg.CancunTime = nil
		cfg.PragueTime = nil
	default:
		return nil, fmt.Errorf("unsupported fork %q", fork)
	}

	return &cfg, nil
}
