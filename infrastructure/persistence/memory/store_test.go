package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-backend/domain/core/aggregates"
)

func newGraph(t *testing.T, ownerID, personName string) *aggregates.IdentityGraph {
	t.Helper()
	graph, err := aggregates.NewIdentityGraph(ownerID, personName)
	require.NoError(t, err)
	return graph
}

func TestGraphStore_SaveAndGet(t *testing.T) {
	store := NewGraphStore()
	graph := newGraph(t, "user-1", "Alice Smith")

	require.NoError(t, store.Save(context.Background(), graph))

	loaded, err := store.GetByID(context.Background(), graph.ID())
	require.NoError(t, err)
	assert.Equal(t, graph.ID(), loaded.ID())

	_, err = store.GetByID(context.Background(), aggregates.GraphID("missing"))
	assert.Error(t, err)
}

func TestGraphStore_GetByOwnerID(t *testing.T) {
	store := NewGraphStore()
	require.NoError(t, store.Save(context.Background(), newGraph(t, "user-1", "Alice Smith")))
	require.NoError(t, store.Save(context.Background(), newGraph(t, "user-1", "Bob Jones")))
	require.NoError(t, store.Save(context.Background(), newGraph(t, "user-2", "Carol White")))

	graphs, err := store.GetByOwnerID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, graphs, 2)

	empty, err := store.GetByOwnerID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGraphStore_FindByPersonName_ReturnsNewest(t *testing.T) {
	store := NewGraphStore()

	first := newGraph(t, "user-1", "Alice Smith")
	second := newGraph(t, "user-1", "Alice Smith")
	require.NoError(t, store.Save(context.Background(), first))
	require.NoError(t, store.Save(context.Background(), second))

	found, err := store.FindByPersonName(context.Background(), "user-1", "Alice Smith")
	require.NoError(t, err)

	newest := first
	if second.UpdatedAt().After(first.UpdatedAt()) {
		newest = second
	}
	assert.Equal(t, newest.ID(), found.ID())

	_, err = store.FindByPersonName(context.Background(), "user-1", "Nobody")
	assert.Error(t, err)
}

func TestGraphStore_Delete(t *testing.T) {
	store := NewGraphStore()
	graph := newGraph(t, "user-1", "Alice Smith")
	require.NoError(t, store.Save(context.Background(), graph))

	require.NoError(t, store.Delete(context.Background(), graph.ID()))

	_, err := store.GetByID(context.Background(), graph.ID())
	assert.Error(t, err)

	assert.Error(t, store.Delete(context.Background(), graph.ID()))
}

func TestProfileStore_RoundTrip(t *testing.T) {
	store := NewProfileStore()
	graph := newGraph(t, "user-1", "Alice Smith")
	profile := graph.SynthesizeProfile()

	require.NoError(t, store.Save(context.Background(), graph.ID(), profile))

	loaded, err := store.GetByGraphID(context.Background(), graph.ID())
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)

	require.NoError(t, store.Delete(context.Background(), graph.ID()))
	_, err = store.GetByGraphID(context.Background(), graph.ID())
	assert.Error(t, err)
}
