package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// DefaultDebounce is the quiet period before a scheduled save is written.
const DefaultDebounce = 200 * time.Millisecond

// Sink is where a Saver writes. *Repository implements it.
type Sink interface {
	Save(ctx context.Context, nodes []tree.Node) (bool, error)
}

// Saver coalesces scheduled snapshots into a single write after a quiet
// period. Every Schedule cancels the pending timer and starts a new one, so
// only the latest sequence of a burst is written.
//
// Flush writes the pending snapshot immediately and must be called before
// the process exits; Close flushes and makes later Schedule calls no-ops.
type Saver struct {
	sink    Sink
	delay   time.Duration
	logger  *slog.Logger
	timeout time.Duration

	// writing serializes writes so snapshots reach the sink in the order
	// they were taken.
	writing sync.Mutex

	mu         sync.Mutex
	timer      *time.Timer
	pending    []tree.Node
	hasPending bool
	closed     bool
	lastErr    error
}

// NewSaver creates a saver writing to sink after delay (DefaultDebounce if
// zero or negative).
func NewSaver(sink Sink, delay time.Duration, logger *slog.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		sink:    sink,
		delay:   delay,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Schedule records nodes as the latest snapshot and restarts the quiet period.
// The slice must not be modified afterwards; engine results never are.
func (s *Saver) Schedule(nodes []tree.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending = nodes
	s.hasPending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// Pending reports whether a snapshot is waiting to be written.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPending
}

// LastError returns the error of the most recent write, or nil.
func (s *Saver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Flush writes the pending snapshot now, if any.
func (s *Saver) Flush(ctx context.Context) error {
	s.writing.Lock()
	defer s.writing.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	nodes, ok := s.pending, s.hasPending
	s.pending, s.hasPending = nil, false
	s.mu.Unlock()

	if !ok {
		return nil
	}

	_, err := s.sink.Save(ctx, nodes)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("snapshot save failed", "nodes", len(nodes), "error", err)
	}
	return err
}

// Close flushes the pending snapshot and stops accepting new ones.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

func (s *Saver) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.Flush(ctx)
}
