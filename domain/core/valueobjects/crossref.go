package valueobjects

import (
	"strings"
	"time"

	pkgerrors "nexus-backend/pkg/errors"
)

// CrossReference records that one platform profile points at an account on
// another platform, for example a GitHub bio linking to a Twitter handle.
// Bidirectional pairs of these are the strongest identity evidence we have.
type CrossReference struct {
	sourcePlatform Platform
	targetPlatform Platform
	targetHandle   string
	confidence     float64
	discoveredAt   time.Time
}

// NewCrossReference creates a validated cross-reference. The confidence is
// clamped to [0,1] so callers never persist an out-of-range value.
func NewCrossReference(source, target Platform, handle string, confidence float64, discoveredAt time.Time) (CrossReference, error) {
	if !source.IsValid() {
		return CrossReference{}, pkgerrors.NewValidationError("cross-reference source platform is not supported")
	}
	if !target.IsValid() {
		return CrossReference{}, pkgerrors.NewValidationError("cross-reference target platform is not supported")
	}
	if source == target {
		return CrossReference{}, pkgerrors.NewValidationError("cross-reference cannot point at its own platform")
	}
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return CrossReference{}, pkgerrors.NewValidationError("cross-reference handle cannot be empty")
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	if discoveredAt.IsZero() {
		discoveredAt = time.Now().UTC()
	}
	return CrossReference{
		sourcePlatform: source,
		targetPlatform: target,
		targetHandle:   handle,
		confidence:     confidence,
		discoveredAt:   discoveredAt,
	}, nil
}

// SourcePlatform returns the platform on which the reference was found
func (c CrossReference) SourcePlatform() Platform {
	return c.sourcePlatform
}

// TargetPlatform returns the platform the reference points at
func (c CrossReference) TargetPlatform() Platform {
	return c.targetPlatform
}

// TargetHandle returns the normalized handle the reference points at
func (c CrossReference) TargetHandle() string {
	return c.targetHandle
}

// Confidence returns the reference confidence in [0,1]
func (c CrossReference) Confidence() float64 {
	return c.confidence
}

// DiscoveredAt returns when the reference was extracted
func (c CrossReference) DiscoveredAt() time.Time {
	return c.discoveredAt
}

// Target returns the reference target as a NodeKey
func (c CrossReference) Target() NodeKey {
	key, err := NewNodeKey(c.targetPlatform, c.targetHandle)
	if err != nil {
		return NodeKey{}
	}
	return key
}

// Matches checks whether this reference points at the given node key.
// Handles are compared case-insensitively.
func (c CrossReference) Matches(key NodeKey) bool {
	return c.targetPlatform == key.Platform() &&
		strings.EqualFold(c.targetHandle, key.Identifier())
}

// Equals checks whether two cross-references describe the same link
func (c CrossReference) Equals(other CrossReference) bool {
	return c.sourcePlatform == other.sourcePlatform &&
		c.targetPlatform == other.targetPlatform &&
		c.targetHandle == other.targetHandle
}
