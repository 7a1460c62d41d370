package aggregates

import "time"

// UnifiedProfile is the merged view of one person across all resolved
// platforms. It is derived on demand from graph state and never stored
// independently. Field names are a durable contract: downstream consumers
// read this structure by key.
type UnifiedProfile struct {
	Name             string                     `json:"name"`
	Bio              string                     `json:"bio,omitempty"`
	Location         string                     `json:"location,omitempty"`
	Company          string                     `json:"company,omitempty"`
	GeneratedAt      time.Time                  `json:"generatedAt"`
	InsufficientData bool                       `json:"insufficientData"`
	Identity         IdentitySummary            `json:"identity"`
	Platforms        map[string]PlatformProfile `json:"platforms"`
	ActivityTimeline []TimelineEntry            `json:"activityTimeline"`
	RecencyWeighting RecencyWeighting           `json:"recencyWeighting"`
}

// IdentitySummary carries the resolution verdict for the profile
type IdentitySummary struct {
	PrimaryName       string                `json:"primaryName"`
	ConfidenceScore   float64               `json:"confidenceScore"`
	VerifiedPlatforms []string              `json:"verifiedPlatforms"`
	CrossReferences   []CrossReferenceEntry `json:"crossReferences"`
}

// CrossReferenceEntry is one directed platform link in the profile
type CrossReferenceEntry struct {
	SourcePlatform string  `json:"sourcePlatform"`
	TargetPlatform string  `json:"targetPlatform"`
	TargetHandle   string  `json:"targetHandle"`
	Confidence     float64 `json:"confidence"`
	Confirmed      bool    `json:"confirmed"`
}

// PlatformProfile is one platform's contribution to the profile
type PlatformProfile struct {
	Identifier  string                 `json:"identifier"`
	FetchStatus string                 `json:"fetchStatus"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
}

// TimelineEntry is one merged activity in the unified timeline
type TimelineEntry struct {
	Platform   string    `json:"platform"`
	Kind       string    `json:"kind"`
	Content    string    `json:"content,omitempty"`
	URL        string    `json:"url,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Sentiment  string    `json:"sentiment,omitempty"`
}

// RecencyWeighting documents how recency affected derived scores so
// consumers can interpret the timeline.
type RecencyWeighting struct {
	DecayFactor   float64   `json:"decayFactor"`
	ReferenceTime time.Time `json:"referenceTime"`
	HalfLifeDays  float64   `json:"halfLifeDays"`
}
