package scoring

import (
	"math"
	"sort"
	"time"

	"nexus-backend/domain/config"
	"nexus-backend/domain/core/valueobjects"
)

// MomentumClassification labels an identity's activity level
type MomentumClassification string

const (
	MomentumDormant    MomentumClassification = "dormant"
	MomentumModerate   MomentumClassification = "moderate"
	MomentumActive     MomentumClassification = "active"
	MomentumVeryActive MomentumClassification = "very_active"
)

// BurstIntensity labels how concentrated a burst day was
type BurstIntensity string

const (
	BurstLow      BurstIntensity = "low"
	BurstModerate BurstIntensity = "moderate"
	BurstHigh     BurstIntensity = "high"
)

// Burst is one calendar day of unusually concentrated activity
type Burst struct {
	Date      time.Time      `json:"date"`
	Count     int            `json:"count"`
	Intensity BurstIntensity `json:"intensity"`
}

// MomentumResult is the outcome of momentum scoring for one identity
type MomentumResult struct {
	Score          float64                `json:"score"`
	Classification MomentumClassification `json:"classification"`
	Bursts         []Burst                `json:"bursts"`
	EventCount     int                    `json:"eventCount"`
	ReferenceTime  time.Time              `json:"referenceTime"`
}

// MomentumScorer computes time-decayed activity momentum. The scorer is
// pure and stateless: the reference time is always injected, never read
// from a system clock, so identical inputs give identical outputs.
type MomentumScorer struct {
	decayFactor    float64
	saturationK    float64
	burstMinEvents int
	burstMeanMult  float64
	burstHigh      int
	burstModerate  int
	maxBursts      int
	detectBursts   bool
}

// NewMomentumScorer creates a scorer from domain configuration
func NewMomentumScorer(cfg *config.DomainConfig) *MomentumScorer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &MomentumScorer{
		decayFactor:    cfg.MomentumDecayFactor,
		saturationK:    cfg.MomentumSaturationK,
		burstMinEvents: cfg.BurstMinEvents,
		burstMeanMult:  cfg.BurstMeanMultiplier,
		burstHigh:      cfg.BurstHighThreshold,
		burstModerate:  cfg.BurstModerateThreshold,
		maxBursts:      cfg.MaxBurstsReported,
		detectBursts:   cfg.EnableBurstDetection,
	}
}

// Score computes the momentum of an activity stream at the given reference
// time. Events in the future of now count as zero days old rather than
// being rejected.
func (s *MomentumScorer) Score(activities []valueobjects.ActivityEvent, now time.Time) MomentumResult {
	now = now.UTC()
	result := MomentumResult{
		Bursts:        []Burst{},
		EventCount:    len(activities),
		ReferenceTime: now,
	}

	if len(activities) == 0 {
		result.Classification = classifyMomentum(0)
		return result
	}

	sum := 0.0
	for _, activity := range activities {
		daysAgo := math.Floor(now.Sub(activity.OccurredAt()).Hours() / 24)
		if daysAgo < 0 {
			daysAgo = 0
		}
		sum += math.Pow(s.decayFactor, daysAgo)
	}

	// Saturating normalization into [0,100]. Monotonic in the decayed sum
	// and bounded, so more recent activity never lowers the score.
	score := 100 * (1 - math.Exp(-sum/s.saturationK))
	result.Score = math.Round(score*100) / 100
	result.Classification = classifyMomentum(result.Score)

	if s.detectBursts {
		result.Bursts = s.detectBurstDays(activities)
	}

	return result
}

// detectBurstDays groups events by UTC calendar day and flags days whose
// count clears the fixed floor or the dataset's mean by the configured
// multiplier.
func (s *MomentumScorer) detectBurstDays(activities []valueobjects.ActivityEvent) []Burst {
	dailyCounts := map[time.Time]int{}
	for _, activity := range activities {
		dailyCounts[activity.Day()]++
	}

	total := 0
	for _, count := range dailyCounts {
		total += count
	}
	mean := float64(total) / float64(len(dailyCounts))

	bursts := []Burst{}
	for day, count := range dailyCounts {
		if count >= s.burstMinEvents || float64(count) > mean*s.burstMeanMult {
			bursts = append(bursts, Burst{
				Date:      day,
				Count:     count,
				Intensity: s.intensityFor(count),
			})
		}
	}

	sort.Slice(bursts, func(i, j int) bool {
		return bursts[i].Date.After(bursts[j].Date)
	})

	if len(bursts) > s.maxBursts {
		bursts = bursts[:s.maxBursts]
	}
	return bursts
}

func (s *MomentumScorer) intensityFor(count int) BurstIntensity {
	switch {
	case count >= s.burstHigh:
		return BurstHigh
	case count >= s.burstModerate:
		return BurstModerate
	default:
		return BurstLow
	}
}

// classifyMomentum maps a score into its fixed classification band
func classifyMomentum(score float64) MomentumClassification {
	switch {
	case score >= 80:
		return MomentumVeryActive
	case score >= 60:
		return MomentumActive
	case score >= 30:
		return MomentumModerate
	default:
		return MomentumDormant
	}
}
