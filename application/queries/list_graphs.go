package queries

import (
	"context"
	"errors"
	"sort"
	"time"

	"nexus-backend/application/ports"
)

// ListGraphsQuery represents a query to list a user's resolution graphs
type ListGraphsQuery struct {
	UserID string
	Limit  int
	Offset int
}

// Validate validates the query
func (q ListGraphsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// ListGraphsResult represents the result of listing graphs
type ListGraphsResult struct {
	Graphs     []GraphSummary `json:"graphs"`
	TotalCount int            `json:"totalCount"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// GraphSummary represents a summary of one resolution graph
type GraphSummary struct {
	ID         string `json:"id"`
	PersonName string `json:"personName"`
	NodeCount  int    `json:"nodeCount"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// ListGraphsHandler handles the ListGraphsQuery
type ListGraphsHandler struct {
	graphRepo ports.GraphRepository
}

// NewListGraphsHandler creates a new handler instance
func NewListGraphsHandler(graphRepo ports.GraphRepository) *ListGraphsHandler {
	return &ListGraphsHandler{graphRepo: graphRepo}
}

// Handle executes the list graphs query, newest first
func (h *ListGraphsHandler) Handle(ctx context.Context, query ListGraphsQuery) (*ListGraphsResult, error) {
	graphs, err := h.graphRepo.GetByOwnerID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	sort.Slice(graphs, func(i, j int) bool {
		return graphs[i].UpdatedAt().After(graphs[j].UpdatedAt())
	})

	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	result := &ListGraphsResult{
		Graphs:     []GraphSummary{},
		TotalCount: len(graphs),
		Limit:      limit,
		Offset:     query.Offset,
	}

	if query.Offset >= len(graphs) {
		return result, nil
	}

	end := query.Offset + limit
	if end > len(graphs) {
		end = len(graphs)
	}

	for _, graph := range graphs[query.Offset:end] {
		result.Graphs = append(result.Graphs, GraphSummary{
			ID:         graph.ID().String(),
			PersonName: graph.PersonName(),
			NodeCount:  graph.NodeCount(),
			CreatedAt:  graph.CreatedAt().Format(time.RFC3339),
			UpdatedAt:  graph.UpdatedAt().Format(time.RFC3339),
		})
	}

	return result, nil
}
