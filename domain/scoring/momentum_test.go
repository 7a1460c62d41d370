package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-backend/domain/config"
	"nexus-backend/domain/core/valueobjects"
)

var referenceTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func activityAt(t *testing.T, occurredAt time.Time, n int) valueobjects.ActivityEvent {
	t.Helper()
	act, err := valueobjects.NewActivityEvent(
		valueobjects.PlatformGitHub, "commit", fmt.Sprintf("commit %d", n),
		fmt.Sprintf("https://github.example.com/alice/%d", n),
		occurredAt, nil)
	require.NoError(t, err)
	return act
}

func TestMomentumScorer_EmptyStream(t *testing.T) {
	scorer := NewMomentumScorer(nil)

	result := scorer.Score(nil, referenceTime)

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, MomentumDormant, result.Classification)
	assert.Empty(t, result.Bursts)
	assert.Equal(t, 0, result.EventCount)
	assert.Equal(t, referenceTime, result.ReferenceTime)
}

func TestMomentumScorer_SingleRecentEvent(t *testing.T) {
	scorer := NewMomentumScorer(nil)
	activities := []valueobjects.ActivityEvent{activityAt(t, referenceTime.Add(-time.Hour), 1)}

	result := scorer.Score(activities, referenceTime)

	// sum = 0.8^0 = 1, score = 100*(1 - e^(-1/8))
	assert.InDelta(t, 11.75, result.Score, 0.01)
	assert.Equal(t, MomentumDormant, result.Classification)
}

func TestMomentumScorer_BurstDayClassifiedActive(t *testing.T) {
	scorer := NewMomentumScorer(nil)

	activities := make([]valueobjects.ActivityEvent, 0, 8)
	for i := 0; i < 8; i++ {
		activities = append(activities, activityAt(t, referenceTime.Add(-time.Duration(i)*time.Minute), i))
	}

	result := scorer.Score(activities, referenceTime)

	// sum = 8, score = 100*(1 - e^(-1)) ~ 63.21
	assert.InDelta(t, 63.21, result.Score, 0.01)
	assert.Equal(t, MomentumActive, result.Classification)

	require.Len(t, result.Bursts, 1)
	assert.Equal(t, 8, result.Bursts[0].Count)
	assert.Equal(t, BurstHigh, result.Bursts[0].Intensity)
}

func TestMomentumScorer_DecayLowersOlderActivity(t *testing.T) {
	scorer := NewMomentumScorer(nil)

	recent := scorer.Score([]valueobjects.ActivityEvent{activityAt(t, referenceTime.Add(-2*time.Hour), 1)}, referenceTime)
	stale := scorer.Score([]valueobjects.ActivityEvent{activityAt(t, referenceTime.AddDate(0, 0, -10), 1)}, referenceTime)

	assert.Greater(t, recent.Score, stale.Score)

	// 0.8^10 ~ 0.107, score = 100*(1 - e^(-0.107/8))
	assert.InDelta(t, 1.33, stale.Score, 0.01)
}

func TestMomentumScorer_FutureEventsCountAsToday(t *testing.T) {
	scorer := NewMomentumScorer(nil)

	today := scorer.Score([]valueobjects.ActivityEvent{activityAt(t, referenceTime, 1)}, referenceTime)
	future := scorer.Score([]valueobjects.ActivityEvent{activityAt(t, referenceTime.Add(48*time.Hour), 1)}, referenceTime)

	assert.Equal(t, today.Score, future.Score)
}

func TestMomentumScorer_BurstIntensityBands(t *testing.T) {
	scorer := NewMomentumScorer(nil)

	day := referenceTime.AddDate(0, 0, -1)
	activities := make([]valueobjects.ActivityEvent, 0, 6)
	for i := 0; i < 6; i++ {
		activities = append(activities, activityAt(t, day.Add(time.Duration(i)*time.Minute), i))
	}

	result := scorer.Score(activities, referenceTime)

	require.Len(t, result.Bursts, 1)
	assert.Equal(t, BurstModerate, result.Bursts[0].Intensity)
}

func TestMomentumScorer_BurstDetectionDisabled(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.EnableBurstDetection = false
	scorer := NewMomentumScorer(cfg)

	activities := make([]valueobjects.ActivityEvent, 0, 8)
	for i := 0; i < 8; i++ {
		activities = append(activities, activityAt(t, referenceTime.Add(-time.Duration(i)*time.Minute), i))
	}

	result := scorer.Score(activities, referenceTime)

	assert.Empty(t, result.Bursts)
	assert.Greater(t, result.Score, 0.0)
}

func TestClassifyMomentumBands(t *testing.T) {
	assert.Equal(t, MomentumDormant, classifyMomentum(29.99))
	assert.Equal(t, MomentumModerate, classifyMomentum(30))
	assert.Equal(t, MomentumActive, classifyMomentum(60))
	assert.Equal(t, MomentumVeryActive, classifyMomentum(80))
}
