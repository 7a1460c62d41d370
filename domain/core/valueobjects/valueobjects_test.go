package valueobjects

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeKey_NormalizesIdentifier(t *testing.T) {
	key, err := NewNodeKey(PlatformGitHub, "  KentCDodds  ")
	require.NoError(t, err)

	assert.Equal(t, "kentcdodds", key.Identifier())
	assert.Equal(t, "github:kentcdodds", key.String())

	same, err := NewNodeKey(PlatformGitHub, "kentcdodds")
	require.NoError(t, err)
	assert.True(t, key.Equals(same))
}

func TestNewNodeKey_Validation(t *testing.T) {
	_, err := NewNodeKey(Platform("myspace"), "alice")
	assert.Error(t, err)

	_, err = NewNodeKey(PlatformGitHub, "   ")
	assert.Error(t, err)
}

func TestNodeKey_JSONRoundTrip(t *testing.T) {
	key, err := NewNodeKey(PlatformDevTo, "alice")
	require.NoError(t, err)

	data, err := json.Marshal(key)
	require.NoError(t, err)
	assert.Equal(t, `"devto:alice"`, string(data))

	var parsed NodeKey
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, key.Equals(parsed))

	assert.Error(t, json.Unmarshal([]byte(`"no-separator"`), &parsed))
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("  GitHub ")
	require.NoError(t, err)
	assert.Equal(t, PlatformGitHub, p)

	_, err = ParsePlatform("myspace")
	assert.Error(t, err)
}

func TestPlatform_MergePriority(t *testing.T) {
	// GitHub outranks Twitter in name synthesis; unknown platforms sort last.
	assert.Less(t, PlatformGitHub.MergePriority(), PlatformTwitter.MergePriority())
	assert.Equal(t, len(SupportedPlatforms()), Platform("myspace").MergePriority())
}

func TestNewCrossReference_Validation(t *testing.T) {
	now := time.Now().UTC()

	_, err := NewCrossReference(PlatformGitHub, PlatformGitHub, "alice", 0.9, now)
	assert.Error(t, err)

	_, err = NewCrossReference(PlatformGitHub, PlatformTwitter, "  ", 0.9, now)
	assert.Error(t, err)

	// Out-of-range confidence is clamped, not rejected.
	ref, err := NewCrossReference(PlatformGitHub, PlatformTwitter, "Alice", 1.7, now)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ref.Confidence())
	assert.Equal(t, "alice", ref.TargetHandle())
}

func TestCrossReference_Matches(t *testing.T) {
	ref, err := NewCrossReference(PlatformGitHub, PlatformTwitter, "alice", 0.9, time.Now().UTC())
	require.NoError(t, err)

	target, err := NewNodeKey(PlatformTwitter, "ALICE")
	require.NoError(t, err)
	assert.True(t, ref.Matches(target))

	wrongPlatform, err := NewNodeKey(PlatformLinkedIn, "alice")
	require.NoError(t, err)
	assert.False(t, ref.Matches(wrongPlatform))
}

func TestNewActivityEvent_Validation(t *testing.T) {
	occurred := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	_, err := NewActivityEvent(PlatformGitHub, "  ", "content", "", occurred, nil)
	assert.Error(t, err)

	_, err = NewActivityEvent(PlatformGitHub, "commit", "content", "", time.Time{}, nil)
	assert.Error(t, err)

	act, err := NewActivityEvent(PlatformGitHub, "commit", " fix bug ", "", occurred, nil)
	require.NoError(t, err)
	assert.Equal(t, "fix bug", act.Content())
	assert.Equal(t, time.UTC, act.OccurredAt().Location())
}

func TestActivityEvent_DedupKey(t *testing.T) {
	occurred := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	withURL, err := NewActivityEvent(PlatformGitHub, "commit", "first pass", "https://github.example.com/1", occurred, nil)
	require.NoError(t, err)
	sameURL, err := NewActivityEvent(PlatformGitHub, "commit", "different text, same link", "https://github.example.com/1", occurred.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, withURL.DedupKey(), sameURL.DedupKey())

	// Without a URL the key falls back to content hash plus timestamp.
	noURL, err := NewActivityEvent(PlatformGitHub, "commit", "first pass", "", occurred, nil)
	require.NoError(t, err)
	laterNoURL, err := NewActivityEvent(PlatformGitHub, "commit", "first pass", "", occurred.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.NotEqual(t, noURL.DedupKey(), laterNoURL.DedupKey())
}

func TestActivityEvent_Sentiment(t *testing.T) {
	occurred := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	act, err := NewActivityEvent(PlatformGitHub, "commit", "fix bug", "", occurred, nil)
	require.NoError(t, err)
	assert.Equal(t, "", act.Sentiment())

	tagged := act.WithSentiment("  Positive ")
	assert.Equal(t, "positive", tagged.Sentiment())

	// Value semantics: tagging produces a new event, the original stays bare.
	assert.Equal(t, "", act.Sentiment())
}

func TestProfileData_Aliases(t *testing.T) {
	profile := NewProfileData(map[string]interface{}{
		"Full_Name":   "Alice Smith",
		"description": "Engineer",
		"organization": "Acme Labs",
		"followers":   1200,
	})

	assert.Equal(t, "Alice Smith", profile.Name())
	assert.Equal(t, "Engineer", profile.Bio())
	assert.Equal(t, "Acme Labs", profile.Company())
	assert.Equal(t, "", profile.Location())
	assert.False(t, profile.IsEmpty())

	// Non-string values soft-fail to empty on string lookups.
	assert.Equal(t, "", profile.Get("followers"))
}

func TestProfileData_Empty(t *testing.T) {
	empty := NewProfileData(nil)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "", empty.Name())
	assert.Nil(t, empty.Fields())
}
