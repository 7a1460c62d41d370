package ports

import (
	"context"

	"nexus-backend/domain/core/valueobjects"
)

// FetchRecord is one platform's normalized fetch result. The fetch layer
// delivers already-normalized data; the core never performs network I/O.
type FetchRecord struct {
	Platform        valueobjects.Platform
	Identifier      string
	RawProfile      map[string]interface{}
	Activities      []valueobjects.ActivityEvent
	CrossReferences []valueobjects.CrossReference
	Err             error
}

// PlatformFetcher retrieves one platform's profile for an identifier.
// Implementations must honor context cancellation; the resolution service
// bounds every fetch with a timeout.
type PlatformFetcher interface {
	// Fetch retrieves the normalized record for an identifier
	Fetch(ctx context.Context, platform valueobjects.Platform, identifier string) (FetchRecord, error)

	// Supports reports whether the fetcher can serve a platform
	Supports(platform valueobjects.Platform) bool
}
