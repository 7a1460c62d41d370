package di

import (
	"context"
	"fmt"
	"time"

	"nexus-backend/application/commands"
	"nexus-backend/application/commands/bus"
	"nexus-backend/application/ports"
	"nexus-backend/application/queries"
	querybus "nexus-backend/application/queries/bus"
	"nexus-backend/application/services"
	domainconfig "nexus-backend/domain/config"
	"nexus-backend/domain/scoring"
	"nexus-backend/infrastructure/config"
	"nexus-backend/infrastructure/fetch/simulated"
	"nexus-backend/infrastructure/messaging"
	"nexus-backend/infrastructure/messaging/eventbridge"
	"nexus-backend/infrastructure/messaging/websocket"
	"nexus-backend/infrastructure/persistence/dynamodb"
	"nexus-backend/pkg/auth"
	"nexus-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDomainConfig loads the environment-tuned scoring configuration
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideGraphRepository creates the identity graph repository
func ProvideGraphRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.GraphRepository {
	return dynamodb.NewGraphRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideProfileRepository creates the unified profile repository
func ProvideProfileRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ProfileRepository {
	return dynamodb.NewProfileRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventStore creates the DynamoDB-backed event store
func ProvideEventStore(client *awsdynamodb.Client, cfg *config.Config) *dynamodb.DynamoDBEventStore {
	return dynamodb.NewDynamoDBEventStore(client, cfg.DynamoDBTable)
}

// ProvideEventStorePort exposes the event store through its port
func ProvideEventStorePort(store *dynamodb.DynamoDBEventStore) ports.EventStore {
	return store
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideOutboxProcessor creates the background outbox relay
func ProvideOutboxProcessor(
	store *dynamodb.DynamoDBEventStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *dynamodb.OutboxProcessor {
	return dynamodb.NewOutboxProcessor(store, publisher, logger)
}

// ProvideNotifier creates a progress notifier. Without a WebSocket
// endpoint configured, progress updates are dropped.
func ProvideNotifier(
	awsCfg aws.Config,
	client *awsdynamodb.Client,
	cfg *config.Config,
	logger *zap.Logger,
) ports.Notifier {
	if cfg.WebSocketEndpoint == "" {
		return messaging.NewNoopNotifier(logger)
	}
	return websocket.NewNotifier(awsCfg, client, cfg.WebSocketEndpoint, cfg.ConnectionsTable, logger)
}

// ProvidePlatformFetcher creates the platform fetcher
func ProvidePlatformFetcher(logger *zap.Logger) ports.PlatformFetcher {
	return simulated.NewFetcher(logger, nil)
}

// ProvideResolutionService creates the resolution orchestrator
func ProvideResolutionService(
	fetcher ports.PlatformFetcher,
	notifier ports.Notifier,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.ResolutionService {
	return services.NewResolutionService(fetcher, notifier, domainCfg, logger)
}

// ProvideMomentumScorer creates the momentum scorer
func ProvideMomentumScorer(domainCfg *domainconfig.DomainConfig) *scoring.MomentumScorer {
	return scoring.NewMomentumScorer(domainCfg)
}

// ProvideReadinessScorer creates the readiness scorer
func ProvideReadinessScorer(domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *scoring.ReadinessScorer {
	return scoring.NewReadinessScorer(domainCfg, logger)
}

// ProvideMetrics creates the CloudWatch metrics instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		client = nil
	}
	namespace := fmt.Sprintf("Nexus/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("nexus-backend")
}

// ProvideDistributedRateLimiter creates a distributed rate limiter
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedRateLimiter(
		client,
		cfg.DynamoDBTable,
		100,           // 100 requests
		1*time.Minute, // per minute
		"API",         // key prefix for API rate limiting
	)
}

// ProvideDistributedLock creates a distributed lock instance
func ProvideDistributedLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DistributedLock {
	return dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, logger)
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) (interface{}, error)
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	resolution *services.ResolutionService,
	graphRepo ports.GraphRepository,
	profileRepo ports.ProfileRepository,
	eventPublisher ports.EventPublisher,
	distributedLock ports.DistributedLock,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	pipeline := bus.NewPipeline(
		bus.LoggingMiddleware(&zapLoggerAdapter{logger}),
		tracingMiddleware(tracer),
	)

	resolveHandler := commands.NewResolveIdentityHandler(
		resolution,
		graphRepo,
		profileRepo,
		eventPublisher,
		distributedLock,
		logger,
	)
	commandBus.Register(commands.ResolveIdentityCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			resolveCmd, ok := cmd.(commands.ResolveIdentityCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type")
			}
			return resolveHandler.Handle(ctx, resolveCmd)
		},
	}))

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	graphRepo ports.GraphRepository,
	profileRepo ports.ProfileRepository,
	momentum *scoring.MomentumScorer,
	readiness *scoring.ReadinessScorer,
	cache ports.Cache,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()
	metricsMiddleware := querybus.NewMetricsMiddleware(&queryMetricsAdapter{metrics})
	cachingMiddleware := querybus.NewCachingMiddleware(cache, 300)

	// Profile reads are cached at the bus. The cache key is derived from the
	// whole query value, user included, so entries stay scoped to their owner.
	getProfileHandler := queries.NewGetProfileHandler(graphRepo, profileRepo)
	queryBus.Register(queries.GetProfileQuery{}, metricsMiddleware.Wrap(cachingMiddleware.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetProfileQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getProfileHandler.Handle(ctx, getQuery)
		},
	})))

	listGraphsHandler := queries.NewListGraphsHandler(graphRepo)
	queryBus.Register(queries.ListGraphsQuery{}, metricsMiddleware.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListGraphsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listGraphsHandler.Handle(ctx, listQuery)
		},
	}))

	momentumHandler := queries.NewScoreMomentumHandler(graphRepo, momentum)
	queryBus.Register(queries.ScoreMomentumQuery{}, metricsMiddleware.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			momentumQuery, ok := query.(queries.ScoreMomentumQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return momentumHandler.Handle(ctx, momentumQuery)
		},
	}))

	readinessHandler := queries.NewScoreReadinessHandler(graphRepo, momentum, readiness)
	queryBus.Register(queries.ScoreReadinessQuery{}, metricsMiddleware.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			readinessQuery, ok := query.(queries.ScoreReadinessQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return readinessHandler.Handle(ctx, readinessQuery)
		},
	}))

	return queryBus
}

// tracingMiddleware wraps command handlers in an X-Ray subsegment.
func tracingMiddleware(tracer *observability.Tracer) bus.Middleware {
	return func(next bus.CommandHandler) bus.CommandHandler {
		return bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			ctx, seg := tracer.StartSubsegment(ctx, fmt.Sprintf("%T", cmd))
			result, err := next.Handle(ctx, cmd)
			if seg != nil {
				seg.Close(err)
			}
			return result, err
		})
	}
}

// queryMetricsAdapter bridges CloudWatch metrics to the query bus
type queryMetricsAdapter struct {
	metrics *observability.Metrics
}

func (a *queryMetricsAdapter) StartTimer(metric, label string) querybus.Timer {
	return a.metrics.StartTimer(metric, label)
}

func (a *queryMetricsAdapter) Increment(metric, label string) {
	a.metrics.Increment(metric, label)
}

// zapLoggerAdapter adapts zap.Logger to the bus Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, _ := fields[i].(string)
			zapFields = append(zapFields, zap.Any(key, fields[i+1]))
		}
	}
	return zapFields
}
