package queries

import (
	"context"
	"errors"
	"time"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/core/valueobjects"
	"nexus-backend/domain/scoring"
)

// ScoreReadinessQuery computes the outreach readiness for a resolved graph.
// Context is caller-supplied (semantic similarity is produced upstream);
// timing is derived from momentum; intent is detected from the profile
// unless explicitly provided.
type ScoreReadinessQuery struct {
	GraphID      string    `json:"graph_id"`
	UserID       string    `json:"user_id"`
	ContextScore float64   `json:"context_score"`
	IntentScore  *float64  `json:"intent_score,omitempty"`
	Role         string    `json:"role,omitempty"`
	Goal         string    `json:"goal,omitempty"`
	Now          time.Time `json:"now,omitempty"`
}

// ScoreReadinessResult represents the query result
type ScoreReadinessResult struct {
	GraphID  string                   `json:"graph_id"`
	CIT      scoring.CITScore         `json:"cit"`
	Strategy scoring.Strategy         `json:"strategy"`
	Momentum scoring.MomentumResult   `json:"momentum"`
	Intent   scoring.IntentDetection  `json:"intent"`
}

// ScoreReadinessHandler handles the ScoreReadinessQuery
type ScoreReadinessHandler struct {
	graphRepo ports.GraphRepository
	momentum  *scoring.MomentumScorer
	readiness *scoring.ReadinessScorer
}

// NewScoreReadinessHandler creates a new handler instance
func NewScoreReadinessHandler(
	graphRepo ports.GraphRepository,
	momentum *scoring.MomentumScorer,
	readiness *scoring.ReadinessScorer,
) *ScoreReadinessHandler {
	return &ScoreReadinessHandler{
		graphRepo: graphRepo,
		momentum:  momentum,
		readiness: readiness,
	}
}

// Handle executes the readiness scoring query
func (h *ScoreReadinessHandler) Handle(ctx context.Context, query ScoreReadinessQuery) (*ScoreReadinessResult, error) {
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

	activities := graph.MergedActivities()
	momentum := h.momentum.Score(activities, now)

	profile := graph.SynthesizeProfile()
	detection := scoring.DetectIntent(profile.Bio, activities)
	intentScore := detection.Score
	if query.IntentScore != nil {
		intentScore = *query.IntentScore
	}

	role, _ := scoring.ParseRole(query.Role)
	goal, _ := scoring.ParseIntent(query.Goal)

	cit := h.readiness.Score(scoring.ScoreRequest{
		Context: query.ContextScore,
		Intent:  intentScore,
		Timing:  momentum.Score,
		Role:    role,
		Goal:    goal,
		Signals: scoring.Signals{
			TargetBio:   profile.Bio,
			RecentPosts: recentPostContents(activities),
		},
		Now: now,
	})

	return &ScoreReadinessResult{
		GraphID:  query.GraphID,
		CIT:      cit,
		Strategy: scoring.StrategyFor(cit.ExecutionState),
		Momentum: momentum,
		Intent:   detection,
	}, nil
}

// Validate validates the query
func (q ScoreReadinessQuery) Validate() error {
	if q.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

func recentPostContents(activities []valueobjects.ActivityEvent) []string {
	const window = 5
	if len(activities) > window {
		activities = activities[:window]
	}
	posts := make([]string, 0, len(activities))
	for _, activity := range activities {
		if activity.Content() != "" {
			posts = append(posts, activity.Content())
		}
	}
	return posts
}
