package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/aggregates"
)

// GraphStore is an in-memory GraphRepository used in development and tests
type GraphStore struct {
	mu     sync.RWMutex
	graphs map[string]*aggregates.IdentityGraph
}

// NewGraphStore creates an empty in-memory graph store
func NewGraphStore() *GraphStore {
	return &GraphStore{
		graphs: make(map[string]*aggregates.IdentityGraph),
	}
}

// Save persists a graph
func (s *GraphStore) Save(ctx context.Context, graph *aggregates.IdentityGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[graph.ID().String()] = graph
	return nil
}

// GetByID retrieves a graph by its ID
func (s *GraphStore) GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.IdentityGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.graphs[id.String()]
	if !ok {
		return nil, fmt.Errorf("graph not found: %s", id.String())
	}
	return graph, nil
}

// GetByOwnerID retrieves all graphs resolved for a user
func (s *GraphStore) GetByOwnerID(ctx context.Context, ownerID string) ([]*aggregates.IdentityGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var graphs []*aggregates.IdentityGraph
	for _, graph := range s.graphs {
		if graph.OwnerID() == ownerID {
			graphs = append(graphs, graph)
		}
	}
	sort.Slice(graphs, func(i, j int) bool {
		return graphs[i].ID().String() < graphs[j].ID().String()
	})
	return graphs, nil
}

// FindByPersonName retrieves the newest graph a user resolved for a person
func (s *GraphStore) FindByPersonName(ctx context.Context, ownerID, personName string) (*aggregates.IdentityGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *aggregates.IdentityGraph
	for _, graph := range s.graphs {
		if graph.OwnerID() != ownerID || graph.PersonName() != personName {
			continue
		}
		if newest == nil || graph.UpdatedAt().After(newest.UpdatedAt()) {
			newest = graph
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("graph not found for person: %s", personName)
	}
	return newest, nil
}

// Delete removes a graph
func (s *GraphStore) Delete(ctx context.Context, id aggregates.GraphID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[id.String()]; !ok {
		return fmt.Errorf("graph not found: %s", id.String())
	}
	delete(s.graphs, id.String())
	return nil
}

// ProfileStore is an in-memory ProfileRepository used in development and tests
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*aggregates.UnifiedProfile
}

// NewProfileStore creates an empty in-memory profile store
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]*aggregates.UnifiedProfile),
	}
}

// Save persists a synthesized profile for a graph
func (s *ProfileStore) Save(ctx context.Context, graphID aggregates.GraphID, profile *aggregates.UnifiedProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[graphID.String()] = profile
	return nil
}

// GetByGraphID retrieves the stored profile for a graph
func (s *ProfileStore) GetByGraphID(ctx context.Context, graphID aggregates.GraphID) (*aggregates.UnifiedProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[graphID.String()]
	if !ok {
		return nil, fmt.Errorf("profile not found for graph: %s", graphID.String())
	}
	return profile, nil
}

// Delete removes a stored profile
func (s *ProfileStore) Delete(ctx context.Context, graphID aggregates.GraphID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, graphID.String())
	return nil
}

// compile-time interface checks
var (
	_ ports.GraphRepository   = (*GraphStore)(nil)
	_ ports.ProfileRepository = (*ProfileStore)(nil)
)
