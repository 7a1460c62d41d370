package aggregates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-backend/domain/core/entities"
	"nexus-backend/domain/core/valueobjects"
)

func mustKey(t *testing.T, platform valueobjects.Platform, identifier string) valueobjects.NodeKey {
	t.Helper()
	key, err := valueobjects.NewNodeKey(platform, identifier)
	require.NoError(t, err)
	return key
}

func buildNode(t *testing.T, platform valueobjects.Platform, identifier string, fields map[string]interface{}) *entities.IdentityNode {
	t.Helper()
	node, err := entities.NewIdentityNode(mustKey(t, platform, identifier), valueobjects.NewProfileData(fields))
	require.NoError(t, err)
	return node
}

func buildFailedNode(t *testing.T, platform valueobjects.Platform, identifier string) *entities.IdentityNode {
	t.Helper()
	node, err := entities.NewFailedIdentityNode(mustKey(t, platform, identifier), "upstream returned 404")
	require.NoError(t, err)
	return node
}

func addCrossRef(t *testing.T, node *entities.IdentityNode, source, target valueobjects.Platform, handle string) {
	t.Helper()
	ref, err := valueobjects.NewCrossReference(source, target, handle, 0.9, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, node.AddCrossReference(ref))
}

func TestNewIdentityGraph_Validation(t *testing.T) {
	_, err := NewIdentityGraph("", "Alice Smith")
	assert.Error(t, err)

	_, err = NewIdentityGraph("user-1", "   ")
	assert.Error(t, err)

	graph, err := NewIdentityGraph("user-1", "  Alice Smith  ")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", graph.PersonName())
	assert.Equal(t, "user-1", graph.OwnerID())
	assert.NotEmpty(t, graph.ID().String())
}

func TestIdentityGraph_AttachNode_RejectsDuplicateKey(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	node := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice"})
	require.NoError(t, graph.AttachNode(node))

	dup := buildNode(t, valueobjects.PlatformGitHub, "Alice", map[string]interface{}{"name": "Alice"})
	err = graph.AttachNode(dup)
	assert.Error(t, err)
	assert.Equal(t, 1, graph.NodeCount())
}

func TestIdentityGraph_AttachNode_RaisesEvent(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	node := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice"})
	require.NoError(t, graph.AttachNode(node))

	raised := graph.GetUncommittedEvents()
	require.Len(t, raised, 1)
	assert.Equal(t, "graph.node_attached", raised[0].GetEventType())

	graph.MarkEventsAsCommitted()
	assert.Empty(t, graph.GetUncommittedEvents())
}

func TestCalculateCrossValidationScore_NoUsableNodes(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)
	assert.Equal(t, 0.0, graph.CalculateCrossValidationScore())

	require.NoError(t, graph.AttachNode(buildFailedNode(t, valueobjects.PlatformGitHub, "alice")))
	assert.Equal(t, 0.0, graph.CalculateCrossValidationScore())
}

func TestCalculateCrossValidationScore_SingleNodeCapped(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	// A lone node may look perfect, but with no second source to
	// corroborate it the score stays capped.
	node := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{
		"name":     "Alice Smith",
		"bio":      "Distributed systems engineer",
		"location": "Berlin",
		"company":  "Acme Labs",
	})
	require.NoError(t, graph.AttachNode(node))

	assert.Equal(t, 0.5, graph.CalculateCrossValidationScore())
}

func TestCalculateCrossValidationScore_FailedNodesExcluded(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	require.NoError(t, graph.AttachNode(buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})))
	require.NoError(t, graph.AttachNode(buildFailedNode(t, valueobjects.PlatformTwitter, "alice")))

	// Two nodes attached, but only one usable: the single-node cap applies.
	assert.Equal(t, 2, graph.NodeCount())
	assert.Len(t, graph.UsableNodes(), 1)
	assert.Equal(t, 0.5, graph.CalculateCrossValidationScore())
}

func TestCalculateCrossValidationScore_NameAgreementOnly(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	require.NoError(t, graph.AttachNode(buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})))
	require.NoError(t, graph.AttachNode(buildNode(t, valueobjects.PlatformTwitter, "al_s", map[string]interface{}{"name": "alice smith"})))

	// Only the name category fires: no refs, no shared fields, no bios.
	assert.InDelta(t, 0.30, graph.CalculateCrossValidationScore(), 1e-9)
}

func TestCalculateCrossValidationScore_FullAgreement(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	fields := map[string]interface{}{
		"name":     "Alice Smith",
		"bio":      "Distributed systems engineer exploring graph databases",
		"location": "Berlin",
		"company":  "Acme Labs",
	}
	github := buildNode(t, valueobjects.PlatformGitHub, "alice", fields)
	twitter := buildNode(t, valueobjects.PlatformTwitter, "alice", fields)
	addCrossRef(t, github, valueobjects.PlatformGitHub, valueobjects.PlatformTwitter, "alice")
	addCrossRef(t, twitter, valueobjects.PlatformTwitter, valueobjects.PlatformGitHub, "alice")

	require.NoError(t, graph.AttachNode(github))
	require.NoError(t, graph.AttachNode(twitter))

	// Every evidence category at full strength sums to 1.0.
	assert.InDelta(t, 1.0, graph.CalculateCrossValidationScore(), 1e-9)
}

func TestCalculateCrossValidationScore_OneDirectionalRefIsOnlyAttempted(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	github := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})
	twitter := buildNode(t, valueobjects.PlatformTwitter, "alice", map[string]interface{}{"name": "Alice Smith"})
	addCrossRef(t, github, valueobjects.PlatformGitHub, valueobjects.PlatformTwitter, "alice")

	require.NoError(t, graph.AttachNode(github))
	require.NoError(t, graph.AttachNode(twitter))

	// One attempt, zero confirmations: the reference category contributes
	// nothing, only the shared name counts.
	assert.InDelta(t, 0.30, graph.CalculateCrossValidationScore(), 1e-9)
}

func TestCalculateCrossValidationScore_NameAndMutualRefsReachThreshold(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	// Name-only profiles, but each side links to the other.
	github := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})
	twitter := buildNode(t, valueobjects.PlatformTwitter, "alice", map[string]interface{}{"name": "Alice Smith"})
	addCrossRef(t, github, valueobjects.PlatformGitHub, valueobjects.PlatformTwitter, "alice")
	addCrossRef(t, twitter, valueobjects.PlatformTwitter, valueobjects.PlatformGitHub, "alice")

	require.NoError(t, graph.AttachNode(github))
	require.NoError(t, graph.AttachNode(twitter))

	// Agreeing names plus a fully confirmed reference pair clear 0.70 on
	// their own, before location, company, or bio add anything.
	score := graph.CalculateCrossValidationScore()
	assert.GreaterOrEqual(t, score, 0.70)
	assert.InDelta(t, 0.70, score, 1e-9)
}

func TestCalculateCrossValidationScore_FuzzyNameMatch(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	// "alice smithe" and "alice smith" share nine of ten trigrams,
	// clearing the fuzzy threshold without being equal.
	require.NoError(t, graph.AttachNode(buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smithe"})))
	require.NoError(t, graph.AttachNode(buildNode(t, valueobjects.PlatformTwitter, "alice", map[string]interface{}{"name": "Alice Smith"})))

	assert.InDelta(t, 0.30, graph.CalculateCrossValidationScore(), 1e-9)
}

func TestSynthesizeProfile_InsufficientData(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	profile := graph.SynthesizeProfile()
	require.NotNil(t, profile)
	assert.True(t, profile.InsufficientData)
	assert.Equal(t, "Alice Smith", profile.Name)
	assert.Equal(t, 0.0, profile.Identity.ConfidenceScore)
	assert.Empty(t, profile.ActivityTimeline)
}

func TestSynthesizeProfile_IsDeterministic(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	github := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{
		"name": "Alice Smith", "bio": "Engineer", "location": "Berlin",
	})
	act, err := valueobjects.NewActivityEvent(
		valueobjects.PlatformGitHub, "commit", "fix flaky test",
		"https://github.example.com/alice/1",
		time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	require.NoError(t, github.AddActivity(act))
	require.NoError(t, graph.AttachNode(github))

	first := graph.SynthesizeProfile()
	second := graph.SynthesizeProfile()

	// Same graph state, same output, timestamps included.
	assert.Equal(t, first, second)
	assert.Equal(t, graph.UpdatedAt(), first.GeneratedAt)
}

func TestSynthesizeProfile_MergesPlatformsAndTimeline(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	github := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{
		"name": "Alice Smith", "bio": "Building developer tools",
	})
	twitter := buildNode(t, valueobjects.PlatformTwitter, "alice", map[string]interface{}{
		"name": "Alice Smith", "bio": "Thoughts on infra",
	})

	older, err := valueobjects.NewActivityEvent(
		valueobjects.PlatformGitHub, "commit", "initial commit",
		"https://github.example.com/alice/1",
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	newer, err := valueobjects.NewActivityEvent(
		valueobjects.PlatformTwitter, "tweet", "shipping today",
		"https://twitter.example.com/alice/2",
		time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	newer = newer.WithSentiment("positive")
	require.NoError(t, github.AddActivity(older))
	require.NoError(t, twitter.AddActivity(newer))

	require.NoError(t, graph.AttachNode(github))
	require.NoError(t, graph.AttachNode(twitter))

	profile := graph.SynthesizeProfile()

	assert.False(t, profile.InsufficientData)
	assert.Equal(t, "Alice Smith", profile.Identity.PrimaryName)
	assert.Equal(t, []string{"github", "twitter"}, profile.Identity.VerifiedPlatforms)
	assert.Contains(t, profile.Platforms, "github")
	assert.Contains(t, profile.Platforms, "twitter")

	// Both distinct bios survive, GitHub first by merge priority.
	assert.Equal(t, "Building developer tools | Thoughts on infra", profile.Bio)

	require.Len(t, profile.ActivityTimeline, 2)
	assert.Equal(t, "shipping today", profile.ActivityTimeline[0].Content)
	assert.Equal(t, "initial commit", profile.ActivityTimeline[1].Content)

	// Sentiment stays attached where a source supplied it.
	assert.Equal(t, "positive", profile.ActivityTimeline[0].Sentiment)
	assert.Equal(t, "", profile.ActivityTimeline[1].Sentiment)
}

func TestMergedActivities_DeduplicatesAcrossNodes(t *testing.T) {
	graph, err := NewIdentityGraph("user-1", "Alice Smith")
	require.NoError(t, err)

	github := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice"})
	a1, err := valueobjects.NewActivityEvent(
		valueobjects.PlatformGitHub, "commit", "one",
		"https://github.example.com/alice/1",
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	a2, err := valueobjects.NewActivityEvent(
		valueobjects.PlatformGitHub, "commit", "one seen again",
		"https://github.example.com/alice/1",
		time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	require.NoError(t, github.AddActivity(a1))
	require.NoError(t, github.AddActivity(a2))
	require.NoError(t, graph.AttachNode(github))

	// Same URL means the same real-world event.
	assert.Len(t, graph.MergedActivities(), 1)
}

func TestReconstructIdentityGraph_RoundTrip(t *testing.T) {
	node := buildNode(t, valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	graph, err := ReconstructIdentityGraph("graph-1", "user-1", "Alice Smith", []*entities.IdentityNode{node}, created, updated)
	require.NoError(t, err)

	assert.Equal(t, "graph-1", graph.ID().String())
	assert.Equal(t, created, graph.CreatedAt())
	assert.Equal(t, updated, graph.UpdatedAt())
	assert.True(t, graph.HasNode(node.Key()))
	assert.Empty(t, graph.GetUncommittedEvents())
}
