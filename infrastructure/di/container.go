package di

import (
	"nexus-backend/application/commands/bus"
	"nexus-backend/application/ports"
	querybus "nexus-backend/application/queries/bus"
	"nexus-backend/application/services"
	"nexus-backend/domain/scoring"
	"nexus-backend/infrastructure/config"
	"nexus-backend/infrastructure/persistence/dynamodb"
	"nexus-backend/pkg/auth"
	"nexus-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *zap.Logger
	GraphRepo         ports.GraphRepository
	ProfileRepo       ports.ProfileRepository
	EventStore        ports.EventStore
	EventPublisher    ports.EventPublisher
	OutboxProcessor   *dynamodb.OutboxProcessor
	Notifier          ports.Notifier
	Fetcher           ports.PlatformFetcher
	ResolutionService *services.ResolutionService
	MomentumScorer    *scoring.MomentumScorer
	ReadinessScorer   *scoring.ReadinessScorer
	CommandBus        *bus.CommandBus
	QueryBus          *querybus.QueryBus
	Cache             ports.Cache
	Metrics           *observability.Metrics
	Tracer            *observability.Tracer
	RateLimiter       *auth.DistributedRateLimiter
}
