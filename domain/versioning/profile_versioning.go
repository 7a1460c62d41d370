// Package versioning tracks synthesized profile versions. Synthesis is
// deterministic, so two runs over the same graph produce the same
// checksum; a new version is recorded only when the content changed.
package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"nexus-backend/domain/core/aggregates"
)

// ProfileVersion identifies one stored snapshot of a unified profile
type ProfileVersion struct {
	GraphID   string    `json:"graph_id"`
	Version   int       `json:"version"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// Checksum computes a deterministic content hash of a profile. The
// GeneratedAt timestamp is excluded so re-synthesis of unchanged data
// hashes identically.
func Checksum(profile *aggregates.UnifiedProfile) (string, error) {
	if profile == nil {
		return "", fmt.Errorf("profile cannot be nil")
	}

	snapshot := *profile
	snapshot.GeneratedAt = time.Time{}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to serialize profile for checksum: %w", err)
	}

	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:]), nil
}

// NextVersion builds the version record that follows prev for the given
// profile. When the checksum is unchanged, prev is returned with ok
// false and no new version should be stored.
func NextVersion(
	prev *ProfileVersion,
	graphID string,
	profile *aggregates.UnifiedProfile,
	createdBy string,
) (*ProfileVersion, bool, error) {
	checksum, err := Checksum(profile)
	if err != nil {
		return nil, false, err
	}

	if prev != nil && prev.Checksum == checksum {
		return prev, false, nil
	}

	version := 1
	if prev != nil {
		version = prev.Version + 1
	}

	return &ProfileVersion{
		GraphID:   graphID,
		Version:   version,
		Checksum:  checksum,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}, true, nil
}
