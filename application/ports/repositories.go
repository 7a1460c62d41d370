package ports

import (
	"context"
	"time"

	"nexus-backend/domain/core/aggregates"
	"nexus-backend/domain/events"
)

// GraphRepository defines the interface for resolution graph persistence
// This is a port in hexagonal architecture - the domain doesn't know about
// the implementation
type GraphRepository interface {
	// Save persists a graph and its nodes (create or update)
	Save(ctx context.Context, graph *aggregates.IdentityGraph) error

	// GetByID retrieves a graph by its ID
	GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.IdentityGraph, error)

	// GetByOwnerID retrieves all graphs resolved for a user
	GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.IdentityGraph, error)

	// FindByPersonName retrieves the newest graph a user resolved for a
	// person name, if any
	FindByPersonName(ctx context.Context, ownerID, personName string) (*aggregates.IdentityGraph, error)

	// Delete removes a graph and all its nodes
	Delete(ctx context.Context, id aggregates.GraphID) error
}

// ProfileRepository caches synthesized unified profiles keyed by graph
type ProfileRepository interface {
	// Save persists a synthesized profile for a graph
	Save(ctx context.Context, graphID aggregates.GraphID, profile *aggregates.UnifiedProfile) error

	// GetByGraphID retrieves the stored profile for a graph
	GetByGraphID(ctx context.Context, graphID aggregates.GraphID) (*aggregates.UnifiedProfile, error)

	// Delete removes a stored profile
	Delete(ctx context.Context, graphID aggregates.GraphID) error
}

// EventStore defines the interface for event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// GetEventsByType retrieves events of a specific type
	GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Notifier pushes resolution progress to connected clients
type Notifier interface {
	// NotifyProgress reports one platform fetch completing
	NotifyProgress(ctx context.Context, ownerID string, update ProgressUpdate) error
}

// ProgressUpdate is one resolution progress notification
type ProgressUpdate struct {
	GraphID   string    `json:"graphId"`
	Platform  string    `json:"platform"`
	Status    string    `json:"status"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// DistributedLock serializes resolution sessions for the same person so
// concurrent requests do not duplicate fetch work.
type DistributedLock interface {
	// Acquire takes the lock for a key, failing fast when already held
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}
