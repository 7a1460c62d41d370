package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"nexus-backend/application/queries"
	querybus "nexus-backend/application/queries/bus"
	"nexus-backend/pkg/auth"
	"nexus-backend/pkg/common"
	"nexus-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScoringHandler handles momentum and readiness scoring HTTP requests
type ScoringHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *ScoringHandler {
	return &ScoringHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// ScoreReadinessRequest represents the request body for readiness scoring
type ScoreReadinessRequest struct {
	ContextScore  float64  `json:"context_score" validate:"min=0,max=100"`
	IntentScore   *float64 `json:"intent_score,omitempty" validate:"omitempty,min=0,max=100"`
	Role          string   `json:"role,omitempty" validate:"omitempty,oneof=student founder researcher professional freelancer"`
	Goal          string   `json:"goal,omitempty" validate:"omitempty,oneof=hiring funding collaboration mentorship sales"`
	ReferenceTime string   `json:"reference_time,omitempty"`
}

// GetMomentum handles GET /graphs/{graphID}/momentum
func (h *ScoringHandler) GetMomentum(w http.ResponseWriter, r *http.Request) {
	graphID, userCtx, ok := h.graphRequest(w, r)
	if !ok {
		return
	}

	query := queries.ScoreMomentumQuery{
		GraphID: graphID,
		UserID:  userCtx.UserID,
	}

	// Optional injected reference time, mainly for reproducible scoring
	if ref := r.URL.Query().Get("reference_time"); ref != "" {
		now, err := utils.ParseRFC3339(ref)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid reference_time, expected RFC3339")
			return
		}
		query.Now = now
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to score momentum",
			zap.String("graphID", graphID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to score momentum")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ScoreReadiness handles POST /graphs/{graphID}/readiness
func (h *ScoringHandler) ScoreReadiness(w http.ResponseWriter, r *http.Request) {
	graphID, userCtx, ok := h.graphRequest(w, r)
	if !ok {
		return
	}

	var req ScoreReadinessRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	query := queries.ScoreReadinessQuery{
		GraphID:      graphID,
		UserID:       userCtx.UserID,
		ContextScore: req.ContextScore,
		IntentScore:  req.IntentScore,
		Role:         req.Role,
		Goal:         req.Goal,
	}
	if req.ReferenceTime != "" {
		now, err := utils.ParseRFC3339(req.ReferenceTime)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid reference_time, expected RFC3339")
			return
		}
		query.Now = now
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to score readiness",
			zap.String("graphID", graphID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to score readiness")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// graphRequest extracts and validates the graph ID and user context
func (h *ScoringHandler) graphRequest(w http.ResponseWriter, r *http.Request) (string, *auth.UserContext, bool) {
	graphID := chi.URLParam(r, "graphID")
	if graphID == "" {
		h.respondError(w, http.StatusBadRequest, "Graph ID is required")
		return "", nil, false
	}

	if _, err := uuid.Parse(graphID); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid graph ID format")
		return "", nil, false
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return "", nil, false
	}

	return graphID, userCtx, true
}

func (h *ScoringHandler) respondQueryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case strings.Contains(err.Error(), "not found"):
		h.respondError(w, http.StatusNotFound, "Graph not found")
	case strings.Contains(err.Error(), "access denied"):
		h.respondError(w, http.StatusForbidden, "Access denied")
	default:
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *ScoringHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ScoringHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
