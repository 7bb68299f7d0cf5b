package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPut_InsertThenGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rev, err := s.Put(ctx, "doney.items", []byte(`[]`), "d1", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	doc, err := s.Get(ctx, "doney.items")
	require.NoError(t, err)
	assert.Equal(t, Document{
		Key:      "doney.items",
		Payload:  []byte(`[]`),
		Digest:   "d1",
		Revision: 1,
		SavedAt:  100,
	}, doc)
}

func TestPut_OverwriteBumpsRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "k", []byte(`[1]`), "d1", 1, 100)
	require.NoError(t, err)
	rev, err := s.Put(ctx, "k", []byte(`[2]`), "d2", 2, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	doc, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[2]`), doc.Payload)
	assert.Equal(t, "d2", doc.Digest)
	assert.Equal(t, int64(200), doc.SavedAt)

	digest, err := s.Digest(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "d2", digest)
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Digest(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDelete_RemovesDocumentAndHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "k", []byte(`[]`), "d1", 0, 100)
	require.NoError(t, err)
	_, err = s.Put(ctx, "k", []byte(`[]`), "d2", 0, 200)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "k"))

	_, err = s.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrNotFound))

	hist, err := s.History(ctx, "k", 0)
	require.NoError(t, err)
	assert.Empty(t, hist, "history cascades with the document")
}

func TestDelete_MissingKeyIsNotAnError(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "missing"))
}

func TestDelete_ThenPutRestartsRevision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "k", []byte(`[]`), "d1", 0, 100)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "k"))

	rev, err := s.Put(ctx, "k", []byte(`[]`), "d1", 0, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
}

func TestKeys_Sorted(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	for _, k := range []string{"b", "a", "B"} {
		_, err := s.Put(ctx, k, []byte(`[]`), "d", 0, 1)
		require.NoError(t, err)
	}

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "a", "b"}, keys)
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := s.Put(ctx, "k", []byte(`[]`), "d", i, int64(i*100))
		require.NoError(t, err)
	}

	hist, err := s.History(ctx, "k", 2)
	require.NoError(t, err)
	assert.Equal(t, []Revision{
		{Revision: 3, Digest: "d", Nodes: 3, SavedAt: 300},
		{Revision: 2, Digest: "d", Nodes: 2, SavedAt: 200},
	}, hist)

	all, err := s.History(ctx, "k", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPut_CanceledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "k", []byte(`[]`), "d", 0, 1)
	assert.Error(t, err)
}
