package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

const testDelay = 20 * time.Millisecond

// recordingSink remembers every snapshot it is asked to save.
type recordingSink struct {
	mu    sync.Mutex
	saves [][]tree.Node
	err   error
}

func (r *recordingSink) Save(_ context.Context, nodes []tree.Node) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, nodes)
	return r.err == nil, r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *recordingSink) last() []tree.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[len(r.saves)-1]
}

func nodesOf(ids ...string) []tree.Node {
	out := make([]tree.Node, len(ids))
	for i, id := range ids {
		out[i] = tree.Node{ID: id, Title: id}
	}
	return out
}

func TestSaver_CoalescesBurst(t *testing.T) {
	sink := &recordingSink{}
	s := NewSaver(sink, testDelay, discardLogger())

	s.Schedule(nodesOf("A"))
	s.Schedule(nodesOf("A", "B"))
	s.Schedule(nodesOf("A", "B", "C"))

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, nodesOf("A", "B", "C"), sink.last())
	assert.False(t, s.Pending())

	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, sink.count())
}

func TestSaver_FlushWritesImmediately(t *testing.T) {
	sink := &recordingSink{}
	s := NewSaver(sink, time.Hour, discardLogger())

	s.Schedule(nodesOf("A"))
	assert.True(t, s.Pending())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, sink.count())
	assert.False(t, s.Pending())
}

func TestSaver_FlushCancelsTimer(t *testing.T) {
	sink := &recordingSink{}
	s := NewSaver(sink, testDelay, discardLogger())

	s.Schedule(nodesOf("A"))
	require.NoError(t, s.Flush(context.Background()))

	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, sink.count())
}

func TestSaver_FlushWithoutPendingIsNoop(t *testing.T) {
	sink := &recordingSink{}
	s := NewSaver(sink, testDelay, discardLogger())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, sink.count())
}

func TestSaver_CloseFlushesAndStopsScheduling(t *testing.T) {
	sink := &recordingSink{}
	s := NewSaver(sink, time.Hour, discardLogger())

	s.Schedule(nodesOf("A"))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, sink.count())

	s.Schedule(nodesOf("A", "B"))
	assert.False(t, s.Pending())
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestSaver_ErrorIsReported(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	s := NewSaver(sink, time.Hour, discardLogger())

	s.Schedule(nodesOf("A"))
	err := s.Flush(context.Background())

	require.Error(t, err)
	assert.Equal(t, err, s.LastError())
}

func TestSaver_DefaultDelay(t *testing.T) {
	s := NewSaver(&recordingSink{}, 0, nil)
	assert.Equal(t, DefaultDebounce, s.delay)
}

func TestSaver_WithRepository(t *testing.T) {
	st := openStore(t)
	repo := NewRepository(st, "k", WithLogger(discardLogger()))
	s := NewSaver(repo, time.Hour, discardLogger())

	s.Schedule(sampleNodes())
	require.NoError(t, s.Close(context.Background()))

	nodes, err := NewRepository(st, "k", WithLogger(discardLogger())).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleNodes(), nodes)
}
