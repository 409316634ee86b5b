package progress

import (
	"context"
	"sync"

	"github.com/trebuchet-org/solplay/internal/usecase"
)

// NopSink is a no-op implementation of ProgressSink
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() usecase.ProgressSink {
	return &NopSink{}
}

func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}
func (n *NopSink) Info(message string)                                         {}
func (n *NopSink) Error(message string)                                        {}

// MemoryLog keeps activity lines in memory
type MemoryLog struct {
	mu    sync.Mutex
	lines []string
}

func (m *MemoryLog) Append(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
}

// Lines returns a copy of the recorded lines
func (m *MemoryLog) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

var (
	_ usecase.ProgressSink = (*NopSink)(nil)
	_ usecase.ActivityLog  = (*MemoryLog)(nil)
)
