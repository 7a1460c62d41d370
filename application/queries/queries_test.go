package queries

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	querybus "nexus-backend/application/queries/bus"
	"nexus-backend/domain/config"
	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/core/entities"
	"nexus-backend/domain/core/valueobjects"
	"nexus-backend/domain/scoring"
	"nexus-backend/infrastructure/persistence/memory"
)

var scoringNow = time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)

func storedGraph(t *testing.T, graphRepo *memory.GraphStore, ownerID, personName string, activityCount int) *aggregates.IdentityGraph {
	t.Helper()

	graph, err := aggregates.NewIdentityGraph(ownerID, personName)
	require.NoError(t, err)

	key, err := valueobjects.NewNodeKey(valueobjects.PlatformGitHub, "alice")
	require.NoError(t, err)
	node, err := entities.NewIdentityNode(key, valueobjects.NewProfileData(map[string]interface{}{
		"name": personName,
		"bio":  "Engineer, open to collaboration",
	}))
	require.NoError(t, err)

	for i := 0; i < activityCount; i++ {
		act, err := valueobjects.NewActivityEvent(
			valueobjects.PlatformGitHub, "commit", fmt.Sprintf("commit %d", i),
			fmt.Sprintf("https://github.example.com/alice/%d", i),
			scoringNow.Add(-time.Duration(i)*time.Hour), nil)
		require.NoError(t, err)
		require.NoError(t, node.AddActivity(act))
	}

	require.NoError(t, graph.AttachNode(node))
	require.NoError(t, graphRepo.Save(context.Background(), graph))
	return graph
}

type stubCache struct {
	values map[string]interface{}
	sets   int
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string]interface{}{}}
}

func (c *stubCache) Get(ctx context.Context, key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *stubCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.values[key] = value
	c.sets++
	return nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func (c *stubCache) Clear(ctx context.Context) error {
	c.values = map[string]interface{}{}
	return nil
}

func TestGetProfileHandler_Handle_StoredProfile(t *testing.T) {
	// Arrange
	graphRepo := memory.NewGraphStore()
	profileRepo := memory.NewProfileStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 2)

	stored := graph.SynthesizeProfile()
	require.NoError(t, profileRepo.Save(context.Background(), graph.ID(), stored))

	handler := NewGetProfileHandler(graphRepo, profileRepo)

	// Act
	result, err := handler.Handle(context.Background(), GetProfileQuery{
		GraphID: graph.ID().String(),
		UserID:  "user-1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, stored, result.Profile)
}

func TestGetProfileHandler_Handle_ResynthesizesWhenMissing(t *testing.T) {
	// Arrange: no stored profile, so the handler derives one from the graph.
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 2)
	handler := NewGetProfileHandler(graphRepo, memory.NewProfileStore())

	// Act
	result, err := handler.Handle(context.Background(), GetProfileQuery{
		GraphID: graph.ID().String(),
		UserID:  "user-1",
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "Alice Smith", result.Profile.Identity.PrimaryName)
}

// profileQueryHandler adapts the typed handler for the bus middleware,
// the same way the DI wiring does.
func profileQueryHandler(handler *GetProfileHandler) querybus.QueryHandler {
	return querybus.QueryHandlerFunc(func(ctx context.Context, query querybus.Query) (interface{}, error) {
		return handler.Handle(ctx, query.(GetProfileQuery))
	})
}

func TestGetProfileQuery_CachedAtBus(t *testing.T) {
	// Arrange
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 1)
	cache := newStubCache()
	handler := NewGetProfileHandler(graphRepo, memory.NewProfileStore())
	wrapped := querybus.NewCachingMiddleware(cache, 300).Wrap(profileQueryHandler(handler))

	query := GetProfileQuery{GraphID: graph.ID().String(), UserID: "user-1"}

	// Act
	first, err := wrapped.Handle(context.Background(), query)
	require.NoError(t, err)
	second, err := wrapped.Handle(context.Background(), query)
	require.NoError(t, err)

	// Assert: the second call is served from cache, stored exactly once.
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestGetProfileQuery_CacheScopedToOwner(t *testing.T) {
	// Arrange: the owner warms the cache for their graph.
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 1)
	cache := newStubCache()
	handler := NewGetProfileHandler(graphRepo, memory.NewProfileStore())
	wrapped := querybus.NewCachingMiddleware(cache, 300).Wrap(profileQueryHandler(handler))

	_, err := wrapped.Handle(context.Background(), GetProfileQuery{
		GraphID: graph.ID().String(),
		UserID:  "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	// Act: another user asks for the same graph.
	result, err := wrapped.Handle(context.Background(), GetProfileQuery{
		GraphID: graph.ID().String(),
		UserID:  "user-2",
	})

	// Assert: the warm cache entry is keyed to the owner, so the second
	// user reaches the ownership check instead of the cached profile.
	assert.Nil(t, result)
	assert.EqualError(t, err, "access denied")
	assert.Equal(t, 1, cache.sets)
}

func TestGetProfileHandler_Handle_AccessDenied(t *testing.T) {
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 0)
	handler := NewGetProfileHandler(graphRepo, memory.NewProfileStore())

	_, err := handler.Handle(context.Background(), GetProfileQuery{
		GraphID: graph.ID().String(),
		UserID:  "intruder",
	})

	assert.EqualError(t, err, "access denied")
}

func TestGetProfileHandler_Handle_UnknownGraph(t *testing.T) {
	handler := NewGetProfileHandler(memory.NewGraphStore(), memory.NewProfileStore())

	_, err := handler.Handle(context.Background(), GetProfileQuery{GraphID: "missing", UserID: "user-1"})
	assert.Error(t, err)
}

func TestListGraphsHandler_Handle_Pagination(t *testing.T) {
	// Arrange
	graphRepo := memory.NewGraphStore()
	for i := 0; i < 3; i++ {
		storedGraph(t, graphRepo, "user-1", fmt.Sprintf("Person %d", i), 0)
	}
	storedGraph(t, graphRepo, "someone-else", "Other Person", 0)
	handler := NewListGraphsHandler(graphRepo)

	// Act
	result, err := handler.Handle(context.Background(), ListGraphsQuery{UserID: "user-1", Limit: 2})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCount)
	assert.Len(t, result.Graphs, 2)
	assert.Equal(t, 2, result.Limit)
}

func TestListGraphsHandler_Handle_OffsetPastEnd(t *testing.T) {
	graphRepo := memory.NewGraphStore()
	storedGraph(t, graphRepo, "user-1", "Alice Smith", 0)
	handler := NewListGraphsHandler(graphRepo)

	result, err := handler.Handle(context.Background(), ListGraphsQuery{UserID: "user-1", Offset: 5})

	require.NoError(t, err)
	assert.Empty(t, result.Graphs)
	assert.Equal(t, 1, result.TotalCount)
}

func TestScoreMomentumHandler_Handle(t *testing.T) {
	// Arrange
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 8)
	handler := NewScoreMomentumHandler(graphRepo, scoring.NewMomentumScorer(nil))

	// Act
	result, err := handler.Handle(context.Background(), ScoreMomentumQuery{
		GraphID: graph.ID().String(),
		UserID:  "user-1",
		Now:     scoringNow,
	})

	// Assert: eight same-day events score as one saturated burst day.
	require.NoError(t, err)
	assert.Equal(t, 8, result.Momentum.EventCount)
	assert.InDelta(t, 63.21, result.Momentum.Score, 0.01)
	assert.Equal(t, scoring.MomentumActive, result.Momentum.Classification)
}

func TestScoreMomentumHandler_Handle_AccessDenied(t *testing.T) {
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 1)
	handler := NewScoreMomentumHandler(graphRepo, scoring.NewMomentumScorer(nil))

	_, err := handler.Handle(context.Background(), ScoreMomentumQuery{
		GraphID: graph.ID().String(),
		UserID:  "intruder",
		Now:     scoringNow,
	})

	assert.EqualError(t, err, "access denied")
}

func TestScoreReadinessHandler_Handle(t *testing.T) {
	// Arrange
	cfg := config.DefaultDomainConfig()
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 8)
	handler := NewScoreReadinessHandler(
		graphRepo,
		scoring.NewMomentumScorer(cfg),
		scoring.NewReadinessScorer(cfg, nil),
	)

	// Act
	result, err := handler.Handle(context.Background(), ScoreReadinessQuery{
		GraphID:      graph.ID().String(),
		UserID:       "user-1",
		ContextScore: 80,
		Now:          scoringNow,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, graph.ID().String(), result.GraphID)

	// Timing comes from momentum, intent from the bio scan: "open to"
	// and "collaboration" are both worth 20 points.
	assert.InDelta(t, 63.21, result.Momentum.Score, 0.01)
	assert.Equal(t, 40.0, result.Intent.Score)
	assert.InDelta(t, 0.3*80+0.2*40+0.5*result.Momentum.Score, result.CIT.Total, 0.01)
	assert.Equal(t, result.CIT.ExecutionState, result.Strategy.State)
}

func TestScoreReadinessHandler_Handle_ExplicitIntentOverridesDetection(t *testing.T) {
	// Arrange
	graphRepo := memory.NewGraphStore()
	graph := storedGraph(t, graphRepo, "user-1", "Alice Smith", 2)
	handler := NewScoreReadinessHandler(
		graphRepo,
		scoring.NewMomentumScorer(nil),
		scoring.NewReadinessScorer(nil, nil),
	)
	explicit := 90.0

	// Act
	result, err := handler.Handle(context.Background(), ScoreReadinessQuery{
		GraphID:      graph.ID().String(),
		UserID:       "user-1",
		ContextScore: 50,
		IntentScore:  &explicit,
		Now:          scoringNow,
	})

	// Assert: detection still reports what it found, but the caller's
	// intent value feeds the weighted sum.
	require.NoError(t, err)
	assert.Equal(t, 90.0, result.CIT.Intent)
	assert.Equal(t, 40.0, result.Intent.Score)
}

func TestQueryValidation(t *testing.T) {
	assert.Error(t, GetProfileQuery{UserID: "user-1"}.Validate())
	assert.Error(t, GetProfileQuery{GraphID: "graph-1"}.Validate())
	assert.NoError(t, GetProfileQuery{GraphID: "graph-1", UserID: "user-1"}.Validate())

	assert.Error(t, ListGraphsQuery{}.Validate())
	assert.Error(t, ListGraphsQuery{UserID: "user-1", Limit: -1}.Validate())
	assert.NoError(t, ListGraphsQuery{UserID: "user-1"}.Validate())

	assert.Error(t, ScoreMomentumQuery{UserID: "user-1"}.Validate())
	assert.Error(t, ScoreReadinessQuery{GraphID: "graph-1"}.Validate())
	assert.NoError(t, ScoreReadinessQuery{GraphID: "graph-1", UserID: "user-1"}.Validate())
}
