package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-backend/domain/core/valueobjects"
)

func postActivity(t *testing.T, content string, n int) valueobjects.ActivityEvent {
	t.Helper()
	act, err := valueobjects.NewActivityEvent(
		valueobjects.PlatformTwitter, "tweet", content,
		fmt.Sprintf("https://twitter.example.com/alice/%d", n),
		time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC).Add(-time.Duration(n)*time.Hour), nil)
	require.NoError(t, err)
	return act
}

func TestDetectIntent_NoSignals(t *testing.T) {
	detection := DetectIntent("Writing about compilers.", nil)

	assert.Equal(t, 0.0, detection.Score)
	assert.Empty(t, detection.Evidence)
}

func TestDetectIntent_BioKeywords(t *testing.T) {
	detection := DetectIntent("Hiring engineers and open to collaboration", nil)

	// Three bio hits at 20 points each.
	assert.Equal(t, 60.0, detection.Score)
	assert.Contains(t, detection.Evidence, "bio:hiring")
	assert.Contains(t, detection.Evidence, "bio:open to")
	assert.Contains(t, detection.Evidence, "bio:collaboration")
}

func TestDetectIntent_ActivityKeywordsWorthLess(t *testing.T) {
	activities := []valueobjects.ActivityEvent{
		postActivity(t, "Seeking beta testers, DM me", 1),
	}

	detection := DetectIntent("", activities)

	// Two activity hits at 10 points each.
	assert.Equal(t, 20.0, detection.Score)
	assert.Contains(t, detection.Evidence, "twitter:seeking")
	assert.Contains(t, detection.Evidence, "twitter:dm me")
}

func TestDetectIntent_OnlyRecentActivitiesScanned(t *testing.T) {
	activities := make([]valueobjects.ActivityEvent, 0, 6)
	for i := 0; i < 5; i++ {
		activities = append(activities, postActivity(t, "nothing to see here", i))
	}
	activities = append(activities, postActivity(t, "we are hiring", 5))

	detection := DetectIntent("", activities)

	// The hiring post sits past the recency window.
	assert.Equal(t, 0.0, detection.Score)
}

func TestDetectIntent_ScoreCappedAt100(t *testing.T) {
	bio := "hiring, looking for, seeking, open to, available for, dm me"

	detection := DetectIntent(bio, nil)

	assert.Equal(t, 100.0, detection.Score)
	assert.Len(t, detection.Evidence, 6)
}
