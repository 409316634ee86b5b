package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/solplay/internal/domain"
	"github.com/trebuchet-org/solplay/internal/domain/config"
	"github.com/trebuchet-org/solplay/internal/usecase"
)

const engineName = "chain"

// transport is the engine side of the bridge
type transport interface {
	Post(ctx context.Context, msg message) error
	Results() <-chan result
	Close()
}

// Bridge correlates requests to the chain engine with their replies. Every
// request carries a unique stamp; replies are matched by stamp and may
// arrive in any order.
type Bridge struct {
	log     *slog.Logger
	engine  transport
	timeout time.Duration

	mu        sync.Mutex
	pending   map[uint64]chan result
	lastStamp uint64

	done      chan struct{}
	closeOnce sync.Once
}

// NewBridge starts a chain engine and posts its init message. The init is
// not awaited: requests queue behind it on the engine.
func NewBridge(cfg *config.RuntimeConfig, log *slog.Logger) (*Bridge, func(), error) {
	engine := NewEngine(log)
	b := newBridge(engine, cfg.Chain.CallTimeout, log)

	if err := engine.Post(context.Background(), message{Cmd: cmdInit, Fork: cfg.Chain.Fork}); err != nil {
		b.Close()
		return nil, nil, &domain.EngineError{Engine: engineName, Err: err}
	}

	return b, b.Close, nil
}

func newBridge(engine transport, timeout time.Duration, log *slog.Logger) *Bridge {
	b := &Bridge{
		log:     log.With("component", "ChainBridge"),
		engine:  engine,
		timeout: timeout,
		pending: make(map[uint64]chan result),
		done:    make(chan struct{}),
	}
	go b.listen()
	return b
}

func (b *Bridge) listen() {
	for {
		select {
		case res, ok := <-b.engine.Results():
			if !ok {
				return
			}
			b.deliver(res)
		case <-b.done:
			return
		}
	}
}

// deliver hands res to the caller waiting on its stamp. Replies nobody waits
// for are dropped.
func (b *Bridge) deliver(res result) {
	if res.Cmd != cmdSendAsyncResult {
		b.log.Debug("dropping unexpected engine message", "cmd", res.Cmd)
		return
	}

	b.mu.Lock()
	ch, ok := b.pending[res.Stamp]
	if ok {
		delete(b.pending, res.Stamp)
	}
	b.mu.Unlock()

	if !ok {
		b.log.Debug("dropping reply with unknown stamp", "stamp", res.Stamp)
		return
	}
	ch <- res
}

// nextStamp returns a correlation id strictly greater than any issued before
func (b *Bridge) nextStamp() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := uint64(time.Now().UnixNano())
	if next <= b.lastStamp {
		next = b.lastStamp + 1
	}
	b.lastStamp = next
	return next
}

func (b *Bridge) forget(stamp uint64) {
	b.mu.Lock()
	delete(b.pending, stamp)
	b.mu.Unlock()
}

// Pending returns the number of calls awaiting a reply
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Send posts q to the engine and waits for the matching reply
func (b *Bridge) Send(ctx context.Context, q Query) (json.RawMessage, error) {
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", q.Method, err)
	}

	stamp := b.nextStamp()
	reply := make(chan result, 1)
	b.mu.Lock()
	b.pending[stamp] = reply
	b.mu.Unlock()

	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	if err := b.engine.Post(callCtx, message{Cmd: cmdSendAsync, Query: raw, Stamp: stamp}); err != nil {
		b.forget(stamp)
		return nil, b.waitError(ctx, q.Method, err)
	}

	select {
	case res := <-reply:
		switch {
		case res.Error == errProviderNotInstantiated:
			return nil, fmt.Errorf("%s: %w", q.Method, domain.ErrEngineNotReady)
		case res.Error != "":
			return nil, &domain.RPCError{Method: q.Method, Message: res.Error}
		}
		return res.Result, nil
	case <-callCtx.Done():
		b.forget(stamp)
		return nil, b.waitError(ctx, q.Method, callCtx.Err())
	case <-b.done:
		b.forget(stamp)
		return nil, &domain.EngineError{Engine: engineName, Err: domain.ErrEngineClosed}
	}
}

// waitError maps an expired deadline, the caller's or the bridge's, to
// ErrCallTimeout. Only an explicit cancel is passed through.
func (b *Bridge) waitError(parent context.Context, method string, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(parent.Err(), context.DeadlineExceeded) {
		b.log.Debug("chain call timed out", "method", method, "timeout", b.timeout)
		return fmt.Errorf("%s: %w", method, domain.ErrCallTimeout)
	}
	return &domain.EngineError{Engine: engineName, Err: err}
}

// Call sends method with params and decodes the reply into out
func (b *Bridge) Call(ctx context.Context, out any, method string, params ...any) error {
	q, err := NewQuery(method, params...)
	if err != nil {
		return fmt.Errorf("failed to encode %s params: %w", method, err)
	}
	raw, err := b.Send(ctx, q)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// GetAccounts returns the funded development accounts
func (b *Bridge) GetAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := b.Call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetSigner returns a signer that transacts as address
func (b *Bridge) GetSigner(address common.Address) usecase.Signer {
	return &Signer{bridge: b, address: address, provider: b.Provider()}
}

// Provider adapts the bridge to go-ethereum's client interfaces
func (b *Bridge) Provider() *Provider {
	return &Provider{bridge: b}
}

// Close stops the engine. Waiting callers fail with ErrEngineClosed.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.engine.Close()
	})
}
