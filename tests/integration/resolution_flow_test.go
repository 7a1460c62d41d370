package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexus-backend/application/commands"
	"nexus-backend/application/queries"
	"nexus-backend/application/services"
	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/scoring"
	"nexus-backend/infrastructure/fetch/simulated"
	"nexus-backend/infrastructure/persistence/memory"
)

// fixedNow pins every clock in the pipeline so repeated runs agree.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	graphRepo   *memory.GraphStore
	profileRepo *memory.ProfileStore
	resolve     *commands.ResolveIdentityHandler
	getProfile  *queries.GetProfileHandler
	momentum    *queries.ScoreMomentumHandler
	readiness   *queries.ScoreReadinessHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fetcher := simulated.NewFetcher(zap.NewNop(), func() time.Time { return fixedNow })
	resolution := services.NewResolutionService(fetcher, nil, nil, zap.NewNop())

	graphRepo := memory.NewGraphStore()
	profileRepo := memory.NewProfileStore()

	return &testEnv{
		graphRepo:   graphRepo,
		profileRepo: profileRepo,
		resolve:     commands.NewResolveIdentityHandler(resolution, graphRepo, profileRepo, nil, nil, zap.NewNop()),
		getProfile:  queries.NewGetProfileHandler(graphRepo, profileRepo),
		momentum:    queries.NewScoreMomentumHandler(graphRepo, scoring.NewMomentumScorer(nil)),
		readiness:   queries.NewScoreReadinessHandler(graphRepo, scoring.NewMomentumScorer(nil), scoring.NewReadinessScorer(nil, nil)),
	}
}

func TestResolutionPipeline_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.resolve.Handle(ctx, commands.ResolveIdentityCommand{
		UserID:     "user-1",
		PersonName: "Kent C. Dodds",
		Targets: []commands.TargetAccount{
			{Platform: "github", Identifier: "kentcdodds"},
			{Platform: "devto", Identifier: "kentcdodds"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NodesFetched)
	assert.Equal(t, 0, result.NodesFailed)

	// Same identifier on both platforms gives matching display names, so
	// at least the name-match evidence weight must be present.
	assert.GreaterOrEqual(t, result.Confidence, 0.3)
	assert.LessOrEqual(t, result.Confidence, 1.0)

	profileResult, err := env.getProfile.Handle(ctx, queries.GetProfileQuery{
		GraphID: result.GraphID,
		UserID:  "user-1",
	})
	require.NoError(t, err)
	require.NotNil(t, profileResult.Profile)
	assert.False(t, profileResult.Profile.InsufficientData)
	assert.Equal(t, "Kentcdodds", profileResult.Profile.Identity.PrimaryName)
	assert.ElementsMatch(t, []string{"github", "devto"}, profileResult.Profile.Identity.VerifiedPlatforms)
	assert.Equal(t, result.Confidence, profileResult.Profile.Identity.ConfidenceScore)
	assert.NotEmpty(t, profileResult.Profile.ActivityTimeline)
}

func TestResolutionPipeline_PartialFailureStillResolves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.resolve.Handle(ctx, commands.ResolveIdentityCommand{
		UserID:     "user-1",
		PersonName: "Alice Smith",
		Targets: []commands.TargetAccount{
			{Platform: "github", Identifier: "alice-smith"},
			{Platform: "twitter", Identifier: "alice-missing"},
			{Platform: "devto", Identifier: "alice-flaky"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NodesFetched)
	assert.Equal(t, 2, result.NodesFailed)

	// Failed fetches stay in the graph for audit but never score.
	graph, err := env.graphRepo.GetByID(ctx, aggregates.GraphID(result.GraphID))
	require.NoError(t, err)
	assert.Equal(t, 3, graph.NodeCount())
	assert.Len(t, graph.UsableNodes(), 1)
	assert.LessOrEqual(t, result.Confidence, 0.5)

	profileResult, err := env.getProfile.Handle(ctx, queries.GetProfileQuery{
		GraphID: result.GraphID,
		UserID:  "user-1",
	})
	require.NoError(t, err)
	assert.False(t, profileResult.Profile.InsufficientData)
}

func TestResolutionPipeline_ProfileSerializationIsStable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.resolve.Handle(ctx, commands.ResolveIdentityCommand{
		UserID:     "user-1",
		PersonName: "Alice Smith",
		Targets: []commands.TargetAccount{
			{Platform: "github", Identifier: "alice-smith"},
			{Platform: "linkedin", Identifier: "alice-smith"},
		},
	})
	require.NoError(t, err)

	query := queries.GetProfileQuery{GraphID: result.GraphID, UserID: "user-1"}

	first, err := env.getProfile.Handle(ctx, query)
	require.NoError(t, err)
	second, err := env.getProfile.Handle(ctx, query)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first.Profile)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Profile)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestResolutionPipeline_ScoringIsPureThroughTheStack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.resolve.Handle(ctx, commands.ResolveIdentityCommand{
		UserID:     "user-1",
		PersonName: "Alice Smith",
		Targets: []commands.TargetAccount{
			{Platform: "github", Identifier: "alice-smith"},
			{Platform: "devto", Identifier: "alice-smith"},
		},
	})
	require.NoError(t, err)

	momentumQuery := queries.ScoreMomentumQuery{
		GraphID: result.GraphID,
		UserID:  "user-1",
		Now:     fixedNow,
	}
	m1, err := env.momentum.Handle(ctx, momentumQuery)
	require.NoError(t, err)
	m2, err := env.momentum.Handle(ctx, momentumQuery)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)

	// Simulated activity all falls inside the last three weeks, so the
	// decayed sum is positive and the score with it.
	assert.Greater(t, m1.Momentum.Score, 0.0)

	readinessQuery := queries.ScoreReadinessQuery{
		GraphID:      result.GraphID,
		UserID:       "user-1",
		ContextScore: 70,
		Role:         "founder",
		Goal:         "hiring",
		Now:          fixedNow,
	}
	r1, err := env.readiness.Handle(ctx, readinessQuery)
	require.NoError(t, err)
	r2, err := env.readiness.Handle(ctx, readinessQuery)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.GreaterOrEqual(t, r1.CIT.Total, 0.0)
	assert.LessOrEqual(t, r1.CIT.Total, 100.0)
	assert.Equal(t, scoring.ClassifyExecutionState(r1.CIT.Total), r1.CIT.ExecutionState)
	assert.NotEmpty(t, r1.Strategy.Action)
}

func TestResolutionPipeline_OwnershipIsEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.resolve.Handle(ctx, commands.ResolveIdentityCommand{
		UserID:     "user-1",
		PersonName: "Alice Smith",
		Targets:    []commands.TargetAccount{{Platform: "github", Identifier: "alice-smith"}},
	})
	require.NoError(t, err)

	_, err = env.getProfile.Handle(ctx, queries.GetProfileQuery{
		GraphID: result.GraphID,
		UserID:  "intruder",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestResolutionPipeline_CancelledSessionLeavesUsableState(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.resolve.Handle(ctx, commands.ResolveIdentityCommand{
		UserID:     "user-1",
		PersonName: "Alice Smith",
		Targets: []commands.TargetAccount{
			{Platform: "github", Identifier: "alice-smith"},
			{Platform: "devto", Identifier: "alice-smith"},
		},
	})
	require.NoError(t, err)

	// Every fetch saw a dead context and degraded; the session still
	// produced a valid graph and a best-effort profile.
	assert.Equal(t, 2, result.NodesFailed)

	graph, err := env.graphRepo.GetByID(context.Background(), aggregates.GraphID(result.GraphID))
	require.NoError(t, err)
	assert.Equal(t, 2, graph.NodeCount())
	assert.Empty(t, graph.UsableNodes())

	profileResult, err := env.getProfile.Handle(context.Background(), queries.GetProfileQuery{
		GraphID: result.GraphID,
		UserID:  "user-1",
	})
	require.NoError(t, err)
	assert.True(t, profileResult.Profile.InsufficientData)
	assert.Equal(t, 0.0, profileResult.Profile.Identity.ConfidenceScore)
}
