package queries

import (
	"context"
	"errors"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/aggregates"
)

// GetProfileQuery retrieves the unified profile for a resolution graph
type GetProfileQuery struct {
	GraphID string `json:"graph_id"`
	UserID  string `json:"user_id"`
}

// GetProfileResult represents the query result
type GetProfileResult struct {
	GraphID string                     `json:"graph_id"`
	Profile *aggregates.UnifiedProfile `json:"profile"`
}

// GetProfileHandler handles the GetProfileQuery
type GetProfileHandler struct {
	graphRepo   ports.GraphRepository
	profileRepo ports.ProfileRepository
}

// NewGetProfileHandler creates a new handler instance
func NewGetProfileHandler(graphRepo ports.GraphRepository, profileRepo ports.ProfileRepository) *GetProfileHandler {
	return &GetProfileHandler{
		graphRepo:   graphRepo,
		profileRepo: profileRepo,
	}
}

// Handle executes the get profile query. The stored profile is served when
// present; otherwise the profile is re-synthesized from the graph, which is
// always possible because UnifiedProfile is a pure derivation. Caching
// happens at the query bus, keyed by the full query including the user, so
// cached profiles never cross an ownership boundary.
func (h *GetProfileHandler) Handle(ctx context.Context, query GetProfileQuery) (*GetProfileResult, error) {
	graph, err := h.graphRepo.GetByID(ctx, aggregates.GraphID(query.GraphID))
	if err != nil {
		return nil, err
	}
	if graph.OwnerID() != query.UserID {
		return nil, errors.New("access denied")
	}

	profile, err := h.profileRepo.GetByGraphID(ctx, graph.ID())
	if err != nil || profile == nil {
		profile = graph.SynthesizeProfile()
	}

	return &GetProfileResult{
		GraphID: query.GraphID,
		Profile: profile,
	}, nil
}

// Validate validates the query
func (q GetProfileQuery) Validate() error {
	if q.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}
