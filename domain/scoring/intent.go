package scoring

import (
	"strings"

	"nexus-backend/domain/core/valueobjects"
)

// intentKeywords are the explicit openness signals scanned for in bios and
// recent activity.
var intentKeywords = []string{
	"hiring", "looking for", "seeking", "open to",
	"available for", "dm me", "connect", "collaboration",
	"opportunities", "recruiting", "join", "help wanted",
}

const (
	bioKeywordPoints      = 20
	activityKeywordPoints = 10
	recentActivityWindow  = 5
)

// IntentDetection is the result of scanning a profile for openness signals
type IntentDetection struct {
	Score    float64  `json:"score"`
	Evidence []string `json:"evidence"`
}

// DetectIntent scores explicit intent signals from a bio and recent
// activity. Each keyword hit in the bio is worth more than one in an
// activity; only the most recent activities are scanned. The score is
// capped at 100.
func DetectIntent(bio string, activities []valueobjects.ActivityEvent) IntentDetection {
	detection := IntentDetection{Evidence: []string{}}

	lowerBio := strings.ToLower(bio)
	for _, keyword := range intentKeywords {
		if strings.Contains(lowerBio, keyword) {
			detection.Score += bioKeywordPoints
			detection.Evidence = append(detection.Evidence, "bio:"+keyword)
		}
	}

	recent := activities
	if len(recent) > recentActivityWindow {
		recent = recent[:recentActivityWindow]
	}
	for _, activity := range recent {
		content := strings.ToLower(activity.Content())
		for _, keyword := range intentKeywords {
			if strings.Contains(content, keyword) {
				detection.Score += activityKeywordPoints
				detection.Evidence = append(detection.Evidence, string(activity.Platform())+":"+keyword)
			}
		}
	}

	if detection.Score > 100 {
		detection.Score = 100
	}
	return detection
}
