// Package bus dispatches read-side queries. Scoring and profile reads
// are pure derivations, so handlers here never mutate state and can be
// wrapped with caching and metrics middleware freely.
package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrHandlerNotFound is returned by Ask when no handler was registered
// for the query's type.
var ErrHandlerNotFound = errors.New("query handler not found")

// Query represents a read-only query
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc adapts a plain function to the QueryHandler interface
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// QueryBus routes each query to the one handler registered for its
// concrete type. Registration happens during wiring; Ask is safe for
// concurrent use afterwards.
type QueryBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]QueryHandler
}

// NewQueryBus creates an empty query bus
func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: map[reflect.Type]QueryHandler{}}
}

// Register binds a handler to the prototype's concrete type. A second
// registration for the same type is a wiring mistake and is rejected.
func (b *QueryBus) Register(prototype Query, handler QueryHandler) error {
	key := reflect.TypeOf(prototype)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.handlers[key]; dup {
		return fmt.Errorf("duplicate query handler for %s", key.Name())
	}
	b.handlers[key] = handler
	return nil
}

// Ask validates the query, then dispatches it to its handler
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	b.mu.RLock()
	handler, ok := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %T: %w", query, err)
	}
	return result, nil
}

// Cache is the read-through store the caching middleware writes to.
// TTL is in seconds.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
}

// CachingMiddleware serves repeated structurally-equal queries from a
// cache. Only successful results are stored.
type CachingMiddleware struct {
	cache      Cache
	ttlSeconds int
}

// NewCachingMiddleware creates a caching middleware with the given TTL
func NewCachingMiddleware(cache Cache, ttlSeconds int) *CachingMiddleware {
	return &CachingMiddleware{cache: cache, ttlSeconds: ttlSeconds}
}

// Wrap adds read-through caching to a handler
func (m *CachingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		key := cacheKey(query)
		if hit, ok := m.cache.Get(ctx, key); ok {
			return hit, nil
		}

		result, err := next.Handle(ctx, query)
		if err != nil {
			return nil, err
		}
		m.cache.Set(ctx, key, result, m.ttlSeconds)
		return result, nil
	})
}

// cacheKey derives the key from the query's type and field values, so
// two queries with equal fields share an entry.
func cacheKey(query Query) string {
	return fmt.Sprintf("%T|%+v", query, query)
}

// Metrics sinks per-query counters and latency timers
type Metrics interface {
	StartTimer(metric, label string) Timer
	Increment(metric, label string)
}

// Timer measures one handler invocation
type Timer interface {
	Stop()
}

// MetricsMiddleware records a counter and a latency timer per query
// type, split by outcome.
type MetricsMiddleware struct {
	metrics Metrics
}

// NewMetricsMiddleware creates a metrics middleware
func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Wrap adds metrics recording to a handler
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		label := reflect.TypeOf(query).Name()
		timer := m.metrics.StartTimer("query_duration", label)
		defer timer.Stop()

		m.metrics.Increment("query_count", label)
		result, err := next.Handle(ctx, query)
		if err != nil {
			m.metrics.Increment("query_errors", label)
			return nil, err
		}
		m.metrics.Increment("query_success", label)
		return result, nil
	})
}
