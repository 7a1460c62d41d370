package valueobjects

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	pkgerrors "nexus-backend/pkg/errors"
)

// ActivityEvent is a single dated action observed on a platform: a commit,
// a post, an answer. Events are append-only once recorded on a node.
type ActivityEvent struct {
	platform   Platform
	kind       string
	content    string
	url        string
	occurredAt time.Time
	sentiment  string
	metadata   map[string]string
}

// NewActivityEvent creates a validated activity event. Timestamps are
// normalized to UTC so day grouping is stable across sources.
func NewActivityEvent(platform Platform, kind, content, url string, occurredAt time.Time, metadata map[string]string) (ActivityEvent, error) {
	if !platform.IsValid() {
		return ActivityEvent{}, pkgerrors.NewValidationError("activity platform is not supported")
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return ActivityEvent{}, pkgerrors.NewValidationError("activity kind cannot be empty")
	}
	if occurredAt.IsZero() {
		return ActivityEvent{}, pkgerrors.NewValidationError("activity timestamp cannot be zero")
	}

	var meta map[string]string
	if len(metadata) > 0 {
		meta = make(map[string]string, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}

	return ActivityEvent{
		platform:   platform,
		kind:       kind,
		content:    strings.TrimSpace(content),
		url:        strings.TrimSpace(url),
		occurredAt: occurredAt.UTC(),
		metadata:   meta,
	}, nil
}

// Platform returns the platform the activity happened on
func (a ActivityEvent) Platform() Platform {
	return a.platform
}

// Kind returns the activity type, e.g. "commit" or "post"
func (a ActivityEvent) Kind() string {
	return a.kind
}

// Content returns the activity text, possibly empty
func (a ActivityEvent) Content() string {
	return a.content
}

// URL returns the canonical link for the activity, possibly empty
func (a ActivityEvent) URL() string {
	return a.url
}

// OccurredAt returns the UTC timestamp of the activity
func (a ActivityEvent) OccurredAt() time.Time {
	return a.occurredAt
}

// Sentiment returns the recorded sentiment label, or "" when the source
// provided none.
func (a ActivityEvent) Sentiment() string {
	return a.sentiment
}

// WithSentiment returns a copy of the event carrying a sentiment label.
// Sentiment is optional and source-provided; the value is stored as given
// apart from whitespace and case normalization.
func (a ActivityEvent) WithSentiment(sentiment string) ActivityEvent {
	a.sentiment = strings.ToLower(strings.TrimSpace(sentiment))
	return a
}

// Metadata returns a copy of the activity's metadata
func (a ActivityEvent) Metadata() map[string]string {
	if a.metadata == nil {
		return nil
	}
	meta := make(map[string]string, len(a.metadata))
	for k, v := range a.metadata {
		meta[k] = v
	}
	return meta
}

// Day returns the UTC calendar day the activity occurred on, used for
// grouping events into bursts.
func (a ActivityEvent) Day() time.Time {
	return a.occurredAt.Truncate(24 * time.Hour)
}

// DedupKey returns a stable key identifying the same real-world activity
// seen twice. Events with a URL dedup on (platform, url); events without
// one fall back to a content hash plus timestamp.
func (a ActivityEvent) DedupKey() string {
	if a.url != "" {
		return string(a.platform) + "|" + a.url
	}
	sum := sha256.Sum256([]byte(a.content))
	return string(a.platform) + "|" + hex.EncodeToString(sum[:8]) + "|" + a.occurredAt.Format(time.RFC3339)
}
