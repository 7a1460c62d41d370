package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"nexus-backend/application/queries"
	querybus "nexus-backend/application/queries/bus"
	"nexus-backend/pkg/auth"
	"nexus-backend/pkg/common"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GraphHandler handles identity graph HTTP requests
type GraphHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// GetProfile handles GET /graphs/{graphID}/profile
func (h *GraphHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if graphID == "" {
		h.respondError(w, http.StatusBadRequest, "Graph ID is required")
		return
	}

	// Validate UUID format
	if _, err := uuid.Parse(graphID); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid graph ID format")
		return
	}

	// Get user context
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := queries.GetProfileQuery{
		UserID:  userCtx.UserID,
		GraphID: graphID,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to get profile",
			zap.String("graphID", graphID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		switch {
		case strings.Contains(err.Error(), "not found"):
			h.respondError(w, http.StatusNotFound, "Graph not found")
		case strings.Contains(err.Error(), "access denied"):
			h.respondError(w, http.StatusForbidden, "Access denied")
		default:
			h.respondError(w, http.StatusInternalServerError, "Failed to retrieve profile")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ListGraphs handles GET /graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	// Get user context
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	params := common.ExtractPaginationParams(r)

	query := queries.ListGraphsQuery{
		UserID: userCtx.UserID,
		Limit:  params.PageSize,
		Offset: params.Offset(),
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list graphs",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "Failed to list graphs")
		return
	}

	listResult, ok := result.(*queries.ListGraphsResult)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Unexpected result type")
		return
	}

	h.respondJSON(w, http.StatusOK, common.NewPaginatedResult(
		listResult.Graphs,
		params.Page,
		params.PageSize,
		listResult.TotalCount,
	))
}

func (h *GraphHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *GraphHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
