package scoring

import "time"

// TemporalWindow is a recurring weekly time range that adjusts the
// readiness total. Windows are matched against the injected reference
// time; matching windows apply their deltas additively.
type TemporalWindow struct {
	Name  string
	Start WeekMoment
	End   WeekMoment
	Delta float64
}

// WeekMoment is a point in the recurring week as weekday plus minute of day
type WeekMoment struct {
	Day    time.Weekday
	Minute int
}

// minuteOfWeek flattens a weekday and minute into [0, 7*24*60)
func (m WeekMoment) minuteOfWeek() int {
	return int(m.Day)*24*60 + m.Minute
}

// Contains checks whether t falls inside the window. Windows that wrap the
// week boundary (end before start) are supported.
func (w TemporalWindow) Contains(t time.Time) bool {
	moment := int(t.Weekday())*24*60 + t.Hour()*60 + t.Minute()
	start := w.Start.minuteOfWeek()
	end := w.End.minuteOfWeek()

	if start <= end {
		return moment >= start && moment < end
	}
	return moment >= start || moment < end
}

func at(day time.Weekday, hour, minute int) WeekMoment {
	return WeekMoment{Day: day, Minute: hour*60 + minute}
}

// DefaultTemporalWindows returns the standard weekly adjustment windows.
// The dopamine window recurs Tuesday through Thursday, so it is expanded
// into one entry per day.
func DefaultTemporalWindows() []TemporalWindow {
	windows := []TemporalWindow{
		{
			// Weekend slide: professional identity is dormant
			Name:  "dead_zone",
			Start: at(time.Friday, 17, 0),
			End:   at(time.Sunday, 14, 0),
			Delta: -40,
		},
		{
			// Monday inbox clearance, high friction
			Name:  "monday_blues",
			Start: at(time.Monday, 8, 0),
			End:   at(time.Monday, 11, 30),
			Delta: -20,
		},
		{
			// Sunday evening week prep: online but passive
			Name:  "sunday_scaries",
			Start: at(time.Sunday, 18, 0),
			End:   at(time.Sunday, 21, 0),
			Delta: 5,
		},
	}

	for _, day := range []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday} {
		windows = append(windows, TemporalWindow{
			// Post-lunch lull, open to serendipity
			Name:  "dopamine_window",
			Start: at(day, 14, 0),
			End:   at(day, 16, 30),
			Delta: 10,
		})
	}

	return windows
}
