package queries

import (
	"context"
	"errors"
	"time"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/scoring"
)

// ScoreMomentumQuery computes the activity momentum for a resolved graph
type ScoreMomentumQuery struct {
	GraphID string    `json:"graph_id"`
	UserID  string    `json:"user_id"`
	Now     time.Time `json:"now,omitempty"`
}

// ScoreMomentumResult represents the query result
type ScoreMomentumResult struct {
	GraphID  string                 `json:"graph_id"`
	Momentum scoring.MomentumResult `json:"momentum"`
}

// ScoreMomentumHandler handles the ScoreMomentumQuery
type ScoreMomentumHandler struct {
	graphRepo ports.GraphRepository
	scorer    *scoring.MomentumScorer
}

// NewScoreMomentumHandler creates a new handler instance
func NewScoreMomentumHandler(graphRepo ports.GraphRepository, scorer *scoring.MomentumScorer) *ScoreMomentumHandler {
	return &ScoreMomentumHandler{
		graphRepo: graphRepo,
		scorer:    scorer,
	}
}

// Handle executes the momentum scoring query over the graph's merged
// activity timeline. When the caller supplies no reference time the scorer
// runs against the current clock; tests always inject one.
func (h *ScoreMomentumHandler) Handle(ctx context.Context, query ScoreMomentumQuery) (*ScoreMomentumResult, error) {
	graph, err := h.graphRepo.GetByID(ctx, aggregates.GraphID(query.GraphID))
	if err != nil {
		return nil, err
	}
	if graph.OwnerID() != query.UserID {
		return nil, errors.New("access denied")
	}

	now := query.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &ScoreMomentumResult{
		GraphID:  query.GraphID,
		Momentum: h.scorer.Score(graph.MergedActivities(), now),
	}, nil
}

// Validate validates the query
func (q ScoreMomentumQuery) Validate() error {
	if q.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}
