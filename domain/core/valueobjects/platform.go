package valueobjects

import (
	"strings"

	pkgerrors "nexus-backend/pkg/errors"
)

// Platform identifies a social or developer platform an identity node was
// fetched from. The set is closed: records for unknown platforms are rejected
// at the boundary rather than silently carried through scoring.
type Platform string

const (
	PlatformGitHub        Platform = "github"
	PlatformTwitter       Platform = "twitter"
	PlatformLinkedIn      Platform = "linkedin"
	PlatformDevTo         Platform = "devto"
	PlatformStackOverflow Platform = "stackoverflow"
	PlatformBlog          Platform = "blog"
	PlatformHackerNews    Platform = "hackernews"
	PlatformHashnode      Platform = "hashnode"
)

// allPlatforms lists every supported platform in merge-priority order.
// Name synthesis picks the first non-empty name following this order, which
// keeps ties deterministic across repeated synthesis calls.
var allPlatforms = []Platform{
	PlatformGitHub,
	PlatformLinkedIn,
	PlatformDevTo,
	PlatformStackOverflow,
	PlatformTwitter,
	PlatformHackerNews,
	PlatformHashnode,
	PlatformBlog,
}

// ParsePlatform converts a raw string into a Platform
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", pkgerrors.NewValidationError("unknown platform: " + s)
	}
	return p, nil
}

// IsValid reports whether the platform is part of the supported set
func (p Platform) IsValid() bool {
	for _, known := range allPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// String returns the wire representation
func (p Platform) String() string {
	return string(p)
}

// MergePriority returns the platform's position in the name-merge priority
// order; lower is higher priority. Unknown platforms sort last.
func (p Platform) MergePriority() int {
	for i, known := range allPlatforms {
		if p == known {
			return i
		}
	}
	return len(allPlatforms)
}

// SupportedPlatforms returns the closed platform set in priority order
func SupportedPlatforms() []Platform {
	out := make([]Platform, len(allPlatforms))
	copy(out, allPlatforms)
	return out
}
