package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yablochko8/color-finder-semantic-search/domain/search"
	"github.com/yablochko8/color-finder-semantic-search/internal/log"
	"github.com/yablochko8/color-finder-semantic-search/internal/testdb"
)

type recordingIndex struct {
	scriptedStore
	lists []int
	err   error
}

func (r *recordingIndex) EnsureIndex(_ context.Context, _ search.Backend, lists int) error {
	r.lists = append(r.lists, lists)
	return r.err
}

func TestIndexer_Ensure(t *testing.T) {
	store := &recordingIndex{scriptedStore: scriptedStore{rows: 250_000}}
	idx := NewIndexer(store, log.Discard())

	lists, err := idx.Ensure(context.Background(), conceptBackend, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, lists)

	lists, err = idx.Ensure(context.Background(), conceptBackend, 0)
	require.NoError(t, err)
	assert.Equal(t, 250, lists)
	assert.Equal(t, []int{42, 250}, store.lists)
}

func TestIndexer_EnsureError(t *testing.T) {
	store := &recordingIndex{err: errors.New("no extension")}
	_, err := NewIndexer(store, log.Discard()).Ensure(context.Background(), conceptBackend, 10)
	assert.ErrorContains(t, err, "no extension")
}

func TestIndexer_SQLiteIsNoop(t *testing.T) {
	idx := NewIndexer(testdb.NewColorStore(t, conceptBackend), log.Discard())
	lists, err := idx.Ensure(context.Background(), conceptBackend, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, lists)
}
