package simulated

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexus-backend/domain/core/valueobjects"
)

func pinnedClock() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestFetcher_Supports(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)

	assert.True(t, fetcher.Supports(valueobjects.PlatformGitHub))
	assert.True(t, fetcher.Supports(valueobjects.PlatformHackerNews))
	assert.False(t, fetcher.Supports(valueobjects.Platform("myspace")))
}

func TestFetcher_Fetch_IsDeterministic(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)

	first, err := fetcher.Fetch(context.Background(), valueobjects.PlatformGitHub, "alice-smith")
	require.NoError(t, err)
	second, err := fetcher.Fetch(context.Background(), valueobjects.PlatformGitHub, "alice-smith")
	require.NoError(t, err)

	// Same seed, same record, field for field.
	assert.Equal(t, first.RawProfile, second.RawProfile)
	require.Equal(t, len(first.Activities), len(second.Activities))
	for i := range first.Activities {
		assert.Equal(t, first.Activities[i].DedupKey(), second.Activities[i].DedupKey())
		assert.Equal(t, first.Activities[i].OccurredAt(), second.Activities[i].OccurredAt())
	}
	assert.Equal(t, len(first.CrossReferences), len(second.CrossReferences))
}

func TestFetcher_Fetch_ProfileShape(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)

	record, err := fetcher.Fetch(context.Background(), valueobjects.PlatformGitHub, "alice-smith")
	require.NoError(t, err)
	require.NoError(t, record.Err)

	assert.Equal(t, "Alice Smith", record.RawProfile["name"])
	assert.NotEmpty(t, record.RawProfile["bio"])
	assert.Contains(t, record.RawProfile, "public_repos")

	// Activity count stays inside the generator's 3..14 band, all within
	// the trailing three weeks of the pinned clock.
	assert.GreaterOrEqual(t, len(record.Activities), 3)
	assert.LessOrEqual(t, len(record.Activities), 14)
	for _, act := range record.Activities {
		assert.Equal(t, valueobjects.PlatformGitHub, act.Platform())
		assert.False(t, act.OccurredAt().After(pinnedClock()))
		assert.False(t, act.OccurredAt().Before(pinnedClock().AddDate(0, 0, -21)))
	}

	for _, ref := range record.CrossReferences {
		assert.Equal(t, valueobjects.PlatformGitHub, ref.SourcePlatform())
		assert.Equal(t, "alice-smith", ref.TargetHandle())
	}
}

func TestFetcher_Fetch_SentimentAnnotation(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)
	known := map[string]bool{"positive": true, "neutral": true, "negative": true}

	tagged, bare := 0, 0
	for _, handle := range []string{"alice-smith", "bob", "carol", "dave", "erin"} {
		record, err := fetcher.Fetch(context.Background(), valueobjects.PlatformGitHub, handle)
		require.NoError(t, err)
		require.NoError(t, record.Err)

		for _, act := range record.Activities {
			if s := act.Sentiment(); s != "" {
				assert.True(t, known[s], "unexpected sentiment %q", s)
				tagged++
			} else {
				bare++
			}
		}
	}

	// Sentiment is optional per event: across enough records both tagged
	// and untagged activity shows up.
	assert.Positive(t, tagged)
	assert.Positive(t, bare)
}

func TestFetcher_Fetch_MissingProfile(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)

	record, err := fetcher.Fetch(context.Background(), valueobjects.PlatformGitHub, "missing-person")

	// A nonexistent profile is a record-level failure, not a fetch error.
	require.NoError(t, err)
	require.Error(t, record.Err)
	assert.Contains(t, record.Err.Error(), "not found")
	assert.Nil(t, record.RawProfile)
}

func TestFetcher_Fetch_FlakyUpstream(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)

	_, err := fetcher.Fetch(context.Background(), valueobjects.PlatformGitHub, "flaky-host")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetcher_Fetch_UnsupportedPlatform(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)

	_, err := fetcher.Fetch(context.Background(), valueobjects.Platform("myspace"), "alice")

	assert.Error(t, err)
}

func TestFetcher_Fetch_HonorsCancelledContext(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, valueobjects.PlatformGitHub, "alice")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_Fetch_CaseInsensitiveSeed(t *testing.T) {
	fetcher := NewFetcher(zap.NewNop(), pinnedClock)

	lower, err := fetcher.Fetch(context.Background(), valueobjects.PlatformTwitter, "alice")
	require.NoError(t, err)
	upper, err := fetcher.Fetch(context.Background(), valueobjects.PlatformTwitter, "ALICE")
	require.NoError(t, err)

	assert.Equal(t, lower.RawProfile["bio"], upper.RawProfile["bio"])
}
