package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nexus-backend/application/ports"
	"nexus-backend/application/sagas"
	"nexus-backend/application/services"
	"nexus-backend/domain/core/valueobjects"
)

// ResolveIdentityCommand starts an identity resolution session for one
// person across the requested platform accounts
type ResolveIdentityCommand struct {
	UserID     string          `json:"user_id" validate:"required"`
	PersonName string          `json:"person_name" validate:"required,min=1,max=200"`
	Targets    []TargetAccount `json:"targets" validate:"required,min=1,max=20,dive"`
}

// TargetAccount is one platform account to include in the resolution
type TargetAccount struct {
	Platform   string `json:"platform" validate:"required"`
	Identifier string `json:"identifier" validate:"required,min=1,max=100"`
}

// ResolveIdentityResult is the command outcome returned to the caller
type ResolveIdentityResult struct {
	GraphID      string  `json:"graph_id"`
	Confidence   float64 `json:"confidence"`
	NodesFetched int     `json:"nodes_fetched"`
	NodesFailed  int     `json:"nodes_failed"`
}

// ResolveIdentityHandler handles the ResolveIdentityCommand
type ResolveIdentityHandler struct {
	resolution  *services.ResolutionService
	graphRepo   ports.GraphRepository
	profileRepo ports.ProfileRepository
	eventBus    ports.EventPublisher
	lock        ports.DistributedLock
	logger      *zap.Logger
}

// NewResolveIdentityHandler creates a new handler instance
func NewResolveIdentityHandler(
	resolution *services.ResolutionService,
	graphRepo ports.GraphRepository,
	profileRepo ports.ProfileRepository,
	eventBus ports.EventPublisher,
	lock ports.DistributedLock,
	logger *zap.Logger,
) *ResolveIdentityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolveIdentityHandler{
		resolution:  resolution,
		graphRepo:   graphRepo,
		profileRepo: profileRepo,
		eventBus:    eventBus,
		lock:        lock,
		logger:      logger,
	}
}

// Handle executes the resolve identity command
func (h *ResolveIdentityHandler) Handle(ctx context.Context, cmd ResolveIdentityCommand) (*ResolveIdentityResult, error) {
	// Serialize concurrent resolutions of the same person for one user
	if h.lock != nil {
		release, err := h.lock.Acquire(ctx, lockKey(cmd), 2*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("resolution already in progress: %w", err)
		}
		defer func() {
			if relErr := release(ctx); relErr != nil {
				h.logger.Warn("failed to release resolution lock", zap.Error(relErr))
			}
		}()
	}

	targets := make([]services.PlatformTarget, 0, len(cmd.Targets))
	for _, t := range cmd.Targets {
		platform, err := valueobjects.ParsePlatform(t.Platform)
		if err != nil {
			return nil, err
		}
		targets = append(targets, services.PlatformTarget{
			Platform:   platform,
			Identifier: t.Identifier,
		})
	}

	// Resolution and persistence run as a saga: if storing the profile
	// fails, the already-saved graph is rolled back so no half-persisted
	// session is left behind.
	pipeline := sagas.New("resolve-identity", h.logger).
		AddStep(sagas.Step{
			Name: "resolve",
			Execute: func(ctx context.Context, _ interface{}) (interface{}, error) {
				return h.resolution.Resolve(ctx, services.ResolveRequest{
					OwnerID:    cmd.UserID,
					PersonName: cmd.PersonName,
					Targets:    targets,
				})
			},
		}).
		AddStep(sagas.Step{
			Name:       "persist-graph",
			MaxRetries: 2,
			Execute: func(ctx context.Context, data interface{}) (interface{}, error) {
				outcome := data.(*services.ResolutionOutcome)
				if err := h.graphRepo.Save(ctx, outcome.Graph); err != nil {
					return nil, fmt.Errorf("save resolution graph: %w", err)
				}
				return outcome, nil
			},
			Compensate: func(ctx context.Context, data interface{}) error {
				outcome := data.(*services.ResolutionOutcome)
				return h.graphRepo.Delete(ctx, outcome.Graph.ID())
			},
		}).
		AddStep(sagas.Step{
			Name:       "persist-profile",
			MaxRetries: 2,
			Execute: func(ctx context.Context, data interface{}) (interface{}, error) {
				outcome := data.(*services.ResolutionOutcome)
				if err := h.profileRepo.Save(ctx, outcome.Graph.ID(), outcome.Profile); err != nil {
					return nil, fmt.Errorf("save synthesized profile: %w", err)
				}
				return outcome, nil
			},
		})

	result, err := pipeline.Execute(ctx, nil)
	if err != nil {
		return nil, err
	}
	outcome := result.(*services.ResolutionOutcome)

	// Publish domain events; failures are logged, not fatal
	domainEvents := outcome.Graph.GetUncommittedEvents()
	domainEvents = append(domainEvents, outcome.CompletionEvent(cmd.UserID))
	if h.eventBus != nil {
		if err := h.eventBus.PublishBatch(ctx, domainEvents); err != nil {
			h.logger.Warn("failed to publish resolution events", zap.Error(err))
		}
	}
	outcome.Graph.MarkEventsAsCommitted()

	return &ResolveIdentityResult{
		GraphID:      outcome.Graph.ID().String(),
		Confidence:   outcome.Profile.Identity.ConfidenceScore,
		NodesFetched: outcome.NodesFetched,
		NodesFailed:  outcome.NodesFailed,
	}, nil
}

// Validate validates the command
func (cmd ResolveIdentityCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.PersonName == "" {
		return errors.New("person name is required")
	}
	if len(cmd.Targets) == 0 {
		return errors.New("at least one target account is required")
	}
	for _, t := range cmd.Targets {
		if t.Platform == "" || t.Identifier == "" {
			return errors.New("every target needs a platform and identifier")
		}
	}
	return nil
}

func lockKey(cmd ResolveIdentityCommand) string {
	return "resolve:" + cmd.UserID + ":" + cmd.PersonName
}
