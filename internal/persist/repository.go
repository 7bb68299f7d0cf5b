package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DataDaddy212/doney-mirror/internal/metrics"
	"github.com/DataDaddy212/doney-mirror/internal/snapshot"
	"github.com/DataDaddy212/doney-mirror/internal/store"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "doney.items"

// Documents is the subset of *store.Store the repository needs.
type Documents interface {
	Get(ctx context.Context, key string) (store.Document, error)
	Put(ctx context.Context, key string, payload []byte, digest string, nodes int, savedAt int64) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Repository reads and writes one storage key.
type Repository struct {
	docs    Documents
	key     string
	logger  *slog.Logger
	clock   tree.Clock
	metrics *metrics.Recorder

	mu         sync.Mutex
	lastDigest string
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLogger sets the logger used for warnings about discarded data.
func WithLogger(l *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = l
	}
}

// WithClock sets the clock used to stamp saves.
func WithClock(c tree.Clock) RepositoryOption {
	return func(r *Repository) {
		r.clock = c
	}
}

// WithMetrics records save results on m.
func WithMetrics(m *metrics.Recorder) RepositoryOption {
	return func(r *Repository) {
		r.metrics = m
	}
}

// NewRepository creates a repository for key. An empty key uses DefaultKey.
func NewRepository(docs Documents, key string, opts ...RepositoryOption) *Repository {
	if key == "" {
		key = DefaultKey
	}
	r := &Repository{
		docs:   docs,
		key:    key,
		logger: slog.Default(),
		clock:  tree.SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the storage key.
func (r *Repository) Key() string {
	return r.key
}

// Load returns the stored sequence.
//
// A missing key gives an empty sequence. A payload that is not JSON or does
// not match the schema is logged at WARN, deleted from the store and also
// gives an empty sequence. A payload that parses but breaks the tree
// invariants is repaired instead: orphaned subtrees are dropped, the rest is
// returned and the stored document and its history are left in place until
// the next save writes the repaired form. Only store failures are returned
// as errors.
func (r *Repository) Load(ctx context.Context) ([]tree.Node, error) {
	doc, err := r.docs.Get(ctx, r.key)
	if errors.Is(err, store.ErrNotFound) {
		r.setDigest("")
		return []tree.Node{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.key, err)
	}

	nodes, violations, err := snapshot.DecodeRepaired(doc.Payload)
	if err != nil {
		r.logger.Warn("discarding corrupt snapshot",
			"key", r.key,
			"revision", doc.Revision,
			"error", err)
		if err := r.docs.Delete(ctx, r.key); err != nil {
			return nil, fmt.Errorf("load %s: delete corrupt snapshot: %w", r.key, err)
		}
		r.setDigest("")
		return []tree.Node{}, nil
	}

	if len(violations) > 0 {
		r.logger.Warn("repaired snapshot",
			"key", r.key,
			"revision", doc.Revision,
			"violations", len(violations),
			"first", violations[0].String(),
			"kept", len(nodes))
		r.setDigest("")
		return nodes, nil
	}

	r.setDigest(doc.Digest)
	r.logger.Debug("snapshot loaded", "key", r.key, "nodes", len(nodes), "revision", doc.Revision)
	return nodes, nil
}

// Save writes nodes unless their digest equals the last one loaded or saved.
// Reports whether a write happened.
func (r *Repository) Save(ctx context.Context, nodes []tree.Node) (bool, error) {
	digest, err := snapshot.Digest(nodes)
	if err != nil {
		r.metrics.Save(metrics.SaveFailed, 0)
		return false, fmt.Errorf("save %s: %w", r.key, err)
	}

	r.mu.Lock()
	unchanged := digest == r.lastDigest
	r.mu.Unlock()
	if unchanged {
		r.metrics.Save(metrics.SaveSkipped, 0)
		return false, nil
	}

	payload, err := snapshot.Encode(nodes)
	if err != nil {
		r.metrics.Save(metrics.SaveFailed, 0)
		return false, fmt.Errorf("save %s: %w", r.key, err)
	}

	start := time.Now()
	rev, err := r.docs.Put(ctx, r.key, payload, digest, len(nodes), r.clock.Now().UnixMilli())
	if err != nil {
		r.metrics.Save(metrics.SaveFailed, 0)
		return false, fmt.Errorf("save %s: %w", r.key, err)
	}
	r.metrics.Save(metrics.SaveWritten, time.Since(start))

	r.setDigest(digest)
	r.logger.Debug("snapshot saved", "key", r.key, "nodes", len(nodes), "revision", rev)
	return true, nil
}

// Clear deletes the stored snapshot.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.docs.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("clear %s: %w", r.key, err)
	}
	r.setDigest("")
	return nil
}

func (r *Repository) setDigest(d string) {
	r.mu.Lock()
	r.lastDigest = d
	r.mu.Unlock()
}
