package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func windowNamed(t *testing.T, name string) TemporalWindow {
	t.Helper()
	for _, w := range DefaultTemporalWindows() {
		if w.Name == name {
			return w
		}
	}
	t.Fatalf("no window named %s", name)
	return TemporalWindow{}
}

func TestDeadZone_WrapsWeekBoundary(t *testing.T) {
	deadZone := windowNamed(t, "dead_zone")

	// Friday Mar 14 2025 through Sunday Mar 16.
	assert.False(t, deadZone.Contains(time.Date(2025, 3, 14, 16, 59, 0, 0, time.UTC)))
	assert.True(t, deadZone.Contains(time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)))
	assert.True(t, deadZone.Contains(time.Date(2025, 3, 15, 3, 0, 0, 0, time.UTC)))
	assert.True(t, deadZone.Contains(time.Date(2025, 3, 16, 13, 59, 0, 0, time.UTC)))
	assert.False(t, deadZone.Contains(time.Date(2025, 3, 16, 14, 0, 0, 0, time.UTC)))
	assert.False(t, deadZone.Contains(time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)))
}

func TestMondayBlues_EndExclusive(t *testing.T) {
	blues := windowNamed(t, "monday_blues")

	assert.True(t, blues.Contains(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
	assert.True(t, blues.Contains(time.Date(2025, 3, 10, 11, 29, 0, 0, time.UTC)))
	assert.False(t, blues.Contains(time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC)))
	assert.False(t, blues.Contains(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)))
}

func TestDopamineWindow_RecursTuesdayThroughThursday(t *testing.T) {
	dopamine := []TemporalWindow{}
	for _, w := range DefaultTemporalWindows() {
		if w.Name == "dopamine_window" {
			dopamine = append(dopamine, w)
		}
	}
	require.Len(t, dopamine, 3)

	contains := func(at time.Time) bool {
		for _, w := range dopamine {
			if w.Contains(at) {
				return true
			}
		}
		return false
	}

	assert.True(t, contains(time.Date(2025, 3, 11, 14, 30, 0, 0, time.UTC)))  // Tuesday
	assert.True(t, contains(time.Date(2025, 3, 12, 16, 29, 0, 0, time.UTC)))  // Wednesday
	assert.True(t, contains(time.Date(2025, 3, 13, 14, 0, 0, 0, time.UTC)))   // Thursday
	assert.False(t, contains(time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)))  // Friday
	assert.False(t, contains(time.Date(2025, 3, 12, 16, 30, 0, 0, time.UTC))) // past end
}

func TestSundayScaries_IsPositive(t *testing.T) {
	scaries := windowNamed(t, "sunday_scaries")

	assert.Greater(t, scaries.Delta, 0.0)
	assert.True(t, scaries.Contains(time.Date(2025, 3, 16, 19, 0, 0, 0, time.UTC)))
	assert.False(t, scaries.Contains(time.Date(2025, 3, 16, 21, 0, 0, 0, time.UTC)))
}
