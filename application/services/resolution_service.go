package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nexus-backend/application/ports"
	"nexus-backend/domain/config"
	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/core/entities"
	"nexus-backend/domain/core/validators"
	"nexus-backend/domain/core/valueobjects"
	"nexus-backend/domain/events"
)

// PlatformTarget names one platform account to resolve
type PlatformTarget struct {
	Platform   valueobjects.Platform
	Identifier string
}

// ResolveRequest describes one identity resolution session
type ResolveRequest struct {
	OwnerID    string
	PersonName string
	Targets    []PlatformTarget
}

// ResolutionOutcome is the result of a completed session
type ResolutionOutcome struct {
	Graph        *aggregates.IdentityGraph
	Profile      *aggregates.UnifiedProfile
	NodesFetched int
	NodesFailed  int
	Duration     time.Duration
}

// ResolutionService coordinates one identity resolution session: it fans
// out platform fetches, accumulates the results into a single graph from
// one goroutine, and synthesizes the unified profile. Each call builds its
// own graph; no state is shared between sessions.
type ResolutionService struct {
	fetcher   ports.PlatformFetcher
	validator *validators.RecordValidator
	notifier  ports.Notifier
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewResolutionService creates a resolution service
func NewResolutionService(
	fetcher ports.PlatformFetcher,
	notifier ports.Notifier,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ResolutionService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolutionService{
		fetcher:   fetcher,
		validator: validators.NewRecordValidator(),
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
	}
}

type fetchResult struct {
	target PlatformTarget
	record ports.FetchRecord
	err    error
}

// Resolve runs a full resolution session. Fetches for distinct platforms
// run in parallel, each bounded by the configured timeout; a failed or
// timed-out fetch degrades its node to failed instead of aborting the
// session. Cancellation is cooperative: results merged before the context
// was cancelled stay in the graph, which is always returned valid.
func (s *ResolutionService) Resolve(ctx context.Context, req ResolveRequest) (*ResolutionOutcome, error) {
	started := time.Now()

	graph, err := aggregates.NewIdentityGraphWithConfig(req.OwnerID, req.PersonName, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("create resolution graph: %w", err)
	}

	targets := s.supportedTargets(req.Targets)
	if len(targets) == 0 {
		profile := graph.SynthesizeProfile()
		graph.RecordSynthesis(profile)
		return &ResolutionOutcome{
			Graph:    graph,
			Profile:  profile,
			Duration: time.Since(started),
		}, nil
	}

	results := make(chan fetchResult, len(targets))
	for _, target := range targets {
		go s.fetchOne(ctx, target, results)
	}

	// Fan-in: graph mutation is serialized through this loop alone.
	fetched, failed := 0, 0
	for i := 0; i < len(targets); i++ {
		res := <-results

		node, buildErr := s.buildNode(res)
		if buildErr != nil {
			s.logger.Warn("discarding unusable fetch result",
				zap.String("platform", res.target.Platform.String()),
				zap.Error(buildErr))
			failed++
			continue
		}

		if node.FetchStatus() == entities.FetchFailed {
			failed++
		} else {
			fetched++
		}

		if err := graph.AttachNode(node); err != nil {
			s.logger.Warn("could not attach node",
				zap.String("node", node.Key().String()),
				zap.Error(err))
			continue
		}
		s.logger.Debug("node attached", zap.Any("node", node.Snapshot()))

		s.notifyProgress(ctx, req.OwnerID, graph, res.target, node, i+1, len(targets))
	}

	profile := graph.SynthesizeProfile()
	graph.RecordSynthesis(profile)

	duration := time.Since(started)
	s.logger.Info("resolution session completed",
		zap.String("graph_id", graph.ID().String()),
		zap.String("person", req.PersonName),
		zap.Int("fetched", fetched),
		zap.Int("failed", failed),
		zap.Float64("confidence", profile.Identity.ConfidenceScore),
		zap.Duration("duration", duration))

	return &ResolutionOutcome{
		Graph:        graph,
		Profile:      profile,
		NodesFetched: fetched,
		NodesFailed:  failed,
		Duration:     duration,
	}, nil
}

// fetchOne performs one platform fetch under the per-fetch timeout and
// always delivers a result, even on panic-free failure paths.
func (s *ResolutionService) fetchOne(ctx context.Context, target PlatformTarget, results chan<- fetchResult) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	record, err := s.fetcher.Fetch(fetchCtx, target.Platform, target.Identifier)
	results <- fetchResult{target: target, record: record, err: err}
}

// buildNode converts a fetch result into a graph node. Fetch errors produce
// failed nodes so the audit trail covers every platform tried; only a
// malformed node key makes a result unusable.
func (s *ResolutionService) buildNode(res fetchResult) (*entities.IdentityNode, error) {
	key, err := valueobjects.NewNodeKey(res.target.Platform, res.target.Identifier)
	if err != nil {
		return nil, err
	}
	if keyErr := s.validator.ValidateNodeKey(key); keyErr != nil {
		return nil, keyErr
	}

	if res.err != nil {
		return entities.NewFailedIdentityNode(key, res.err.Error())
	}
	if res.record.Err != nil {
		return entities.NewFailedIdentityNode(key, res.record.Err.Error())
	}

	node, err := entities.NewIdentityNode(key, valueobjects.NewProfileData(res.record.RawProfile))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.validator.ValidateActivities(res.record.Activities, now); err != nil {
		s.logger.Warn("rejecting activity batch",
			zap.String("node", key.String()),
			zap.Error(err))
	} else {
		for _, activity := range res.record.Activities {
			if addErr := node.AddActivity(activity); addErr != nil {
				s.logger.Debug("skipping activity", zap.Error(addErr))
			}
		}
	}

	if err := s.validator.ValidateCrossReferences(res.record.CrossReferences); err != nil {
		s.logger.Warn("rejecting cross-reference batch",
			zap.String("node", key.String()),
			zap.Error(err))
	} else {
		for _, ref := range res.record.CrossReferences {
			if addErr := node.AddCrossReference(ref); addErr != nil {
				s.logger.Debug("skipping cross-reference", zap.Error(addErr))
			}
		}
	}

	return node, nil
}

func (s *ResolutionService) supportedTargets(targets []PlatformTarget) []PlatformTarget {
	supported := make([]PlatformTarget, 0, len(targets))
	seen := map[string]bool{}
	for _, target := range targets {
		if !s.fetcher.Supports(target.Platform) {
			s.logger.Warn("skipping unsupported platform",
				zap.String("platform", target.Platform.String()))
			continue
		}
		key := target.Platform.String() + ":" + target.Identifier
		if seen[key] {
			continue
		}
		seen[key] = true
		supported = append(supported, target)
	}
	return supported
}

func (s *ResolutionService) notifyProgress(
	ctx context.Context,
	ownerID string,
	graph *aggregates.IdentityGraph,
	target PlatformTarget,
	node *entities.IdentityNode,
	completed, total int,
) {
	if s.notifier == nil {
		return
	}
	update := ports.ProgressUpdate{
		GraphID:   graph.ID().String(),
		Platform:  target.Platform.String(),
		Status:    string(node.FetchStatus()),
		Completed: completed,
		Total:     total,
		Timestamp: time.Now().UTC(),
	}
	if err := s.notifier.NotifyProgress(ctx, ownerID, update); err != nil {
		s.logger.Debug("progress notification failed", zap.Error(err))
	}
}

// CompletionEvent builds the domain event summarizing an outcome
func (o *ResolutionOutcome) CompletionEvent(requestedBy string) events.ResolutionCompleted {
	return events.NewResolutionCompleted(
		o.Graph.ID().String(),
		o.Graph.PersonName(),
		o.NodesFetched,
		o.NodesFailed,
		o.Duration,
		requestedBy,
		time.Now().UTC(),
	)
}
