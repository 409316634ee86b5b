package chain

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/solplay/internal/domain"
)

// fakeEngine captures posted messages and lets tests reply in any order
type fakeEngine struct {
	mu       sync.Mutex
	posted   []message
	received chan message
	results  chan result
	closed   chan struct{}
	once     sync.Once
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		received: make(chan message, 16),
		results:  make(chan result, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeEngine) Post(ctx context.Context, msg message) error {
	select {
	case <-f.closed:
		return domain.ErrEngineClosed
	default:
	}
	f.mu.Lock()
	f.posted = append(f.posted, msg)
	f.mu.Unlock()
	f.received <- msg
	return nil
}

func (f *fakeEngine) Results() <-chan result {
	return f.results
}

func (f *fakeEngine) Close() {
	f.once.Do(func() { close(f.closed) })
}

func (f *fakeEngine) reply(stamp uint64, value string) {
	f.results <- result{Cmd: cmdSendAsyncResult, Stamp: stamp, Result: json.RawMessage(value)}
}

func (f *fakeEngine) next(t *testing.T) message {
	t.Helper()
	select {
	case msg := <-f.received:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message posted")
		return message{}
	}
}

func newTestBridge(t *testing.T, engine transport, timeout time.Duration) *Bridge {
	t.Helper()
	b := newBridge(engine, timeout, slog.New(slog.DiscardHandler))
	t.Cleanup(b.Close)
	return b
}

type sendOutcome struct {
	raw json.RawMessage
	err error
}

func sendAsync(b *Bridge, method string) <-chan sendOutcome {
	out := make(chan sendOutcome, 1)
	go func() {
		raw, err := b.Send(context.Background(), Query{Method: method})
		out <- sendOutcome{raw: raw, err: err}
	}()
	return out
}

func TestBridge_RepliesMatchedByStamp(t *testing.T) {
	engine := newFakeEngine()
	b := newTestBridge(t, engine, time.Minute)

	first := sendAsync(b, "eth_chainId")
	firstMsg := engine.next(t)
	second := sendAsync(b, "eth_blockNumber")
	secondMsg := engine.next(t)

	assert.Equal(t, cmdSendAsync, firstMsg.Cmd)
	assert.Greater(t, secondMsg.Stamp, firstMsg.Stamp)

	// Reply out of order
	engine.reply(secondMsg.Stamp, `"0x5"`)
	engine.reply(firstMsg.Stamp, `"0x539"`)

	got := <-second
	require.NoError(t, got.err)
	assert.JSONEq(t, `"0x5"`, string(got.raw))

	got = <-first
	require.NoError(t, got.err)
	assert.JSONEq(t, `"0x539"`, string(got.raw))
	assert.Equal(t, 0, b.Pending())
}

func TestBridge_UnknownStampIsDropped(t *testing.T) {
	engine := newFakeEngine()
	b := newTestBridge(t, engine, time.Minute)

	pending := sendAsync(b, "eth_chainId")
	msg := engine.next(t)

	engine.reply(msg.Stamp+1000, `"0xbad"`)
	engine.results <- result{Cmd: "somethingElse", Stamp: msg.Stamp}

	select {
	case <-pending:
		t.Fatal("pending call resolved by a foreign reply")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, b.Pending())

	engine.reply(msg.Stamp, `"0x539"`)
	got := <-pending
	require.NoError(t, got.err)
	assert.JSONEq(t, `"0x539"`, string(got.raw))
}

func TestBridge_StampsStrictlyIncrease(t *testing.T) {
	b := newTestBridge(t, newFakeEngine(), 0)

	last := uint64(0)
	for i := 0; i < 1000; i++ {
		stamp := b.nextStamp()
		require.Greater(t, stamp, last)
		last = stamp
	}
}

func TestBridge_ErrorReplies(t *testing.T) {
	engine := newFakeEngine()
	b := newTestBridge(t, engine, time.Minute)

	notReady := sendAsync(b, "eth_accounts")
	msg := engine.next(t)
	engine.results <- result{Cmd: cmdSendAsyncResult, Stamp: msg.Stamp, Error: errProviderNotInstantiated}
	got := <-notReady
	assert.ErrorIs(t, got.err, domain.ErrEngineNotReady)

	failing := sendAsync(b, "eth_call")
	msg = engine.next(t)
	engine.results <- result{Cmd: cmdSendAsyncResult, Stamp: msg.Stamp, Error: "execution reverted"}
	got = <-failing
	var rpcErr *domain.RPCError
	require.True(t, errors.As(got.err, &rpcErr))
	assert.Equal(t, "eth_call", rpcErr.Method)
	assert.Equal(t, "execution reverted", rpcErr.Message)
}

func TestBridge_CallTimeout(t *testing.T) {
	engine := newFakeEngine()
	b := newTestBridge(t, engine, 30*time.Millisecond)

	pending := sendAsync(b, "eth_chainId")
	msg := engine.next(t)

	got := <-pending
	assert.ErrorIs(t, got.err, domain.ErrCallTimeout)
	assert.Equal(t, 0, b.Pending())

	// A late reply is dropped without disturbing later calls
	engine.reply(msg.Stamp, `"0x539"`)
	next := sendAsync(b, "eth_blockNumber")
	nextMsg := engine.next(t)
	engine.reply(nextMsg.Stamp, `"0x1"`)
	got = <-next
	require.NoError(t, got.err)
	assert.JSONEq(t, `"0x1"`, string(got.raw))
}

func TestBridge_CallerCancellation(t *testing.T) {
	engine := newFakeEngine()
	b := newTestBridge(t, engine, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan error, 1)
	go func() {
		_, err := b.Send(ctx, Query{Method: "eth_chainId"})
		out <- err
	}()
	engine.next(t)
	cancel()

	assert.ErrorIs(t, <-out, context.Canceled)
	assert.Equal(t, 0, b.Pending())
}

func TestBridge_CallerDeadlineIsCallTimeout(t *testing.T) {
	engine := newFakeEngine()
	b := newTestBridge(t, engine, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	out := make(chan error, 1)
	go func() {
		_, err := b.Send(ctx, Query{Method: "eth_chainId"})
		out <- err
	}()
	engine.next(t)

	err := <-out
	assert.ErrorIs(t, err, domain.ErrCallTimeout)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, b.Pending())
}

func TestBridge_Close(t *testing.T) {
	engine := newFakeEngine()
	b := newBridge(engine, time.Minute, slog.New(slog.DiscardHandler))

	pending := sendAsync(b, "eth_chainId")
	engine.next(t)
	b.Close()

	got := <-pending
	assert.ErrorIs(t, got.err, domain.ErrEngineClosed)

	_, err := b.Send(context.Background(), Query{Method: "eth_chainId"})
	assert.ErrorIs(t, err, domain.ErrEngineClosed)
}
