package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"nexus-backend/application/commands"
	"nexus-backend/application/commands/bus"
	"nexus-backend/pkg/auth"
	"nexus-backend/pkg/common"
	"nexus-backend/pkg/utils"

	"go.uber.org/zap"
)

// ResolveHandler handles identity resolution HTTP requests
type ResolveHandler struct {
	commandBus *bus.CommandBus
	logger     *zap.Logger
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(commandBus *bus.CommandBus, logger *zap.Logger) *ResolveHandler {
	return &ResolveHandler{
		commandBus: commandBus,
		logger:     logger,
	}
}

// ResolveRequest represents the request body for resolving an identity
type ResolveRequest struct {
	PersonName string          `json:"person_name" validate:"required,min=1,max=200"`
	Targets    []TargetRequest `json:"targets" validate:"required,min=1,max=20,dive"`
}

// TargetRequest identifies a single platform account to fetch
type TargetRequest struct {
	Platform   string `json:"platform" validate:"required,oneof=github twitter linkedin devto"`
	Identifier string `json:"identifier" validate:"required,min=1,max=100"`
}

// ResolveResponse represents the response after a resolution run
type ResolveResponse struct {
	GraphID      string  `json:"graph_id"`
	Confidence   float64 `json:"confidence"`
	NodesFetched int     `json:"nodes_fetched"`
	NodesFailed  int     `json:"nodes_failed"`
	Message      string  `json:"message"`
	CreatedAt    string  `json:"created_at"`
}

// Resolve handles POST /resolutions
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Get user context
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targets := make([]commands.TargetAccount, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, commands.TargetAccount{
			Platform:   t.Platform,
			Identifier: t.Identifier,
		})
	}

	cmd := commands.ResolveIdentityCommand{
		UserID:     userCtx.UserID,
		PersonName: req.PersonName,
		Targets:    targets,
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to resolve identity",
			zap.String("userID", userCtx.UserID),
			zap.String("personName", req.PersonName),
			zap.Error(err),
		)
		switch {
		case strings.Contains(err.Error(), "validation"):
			h.respondError(w, http.StatusBadRequest, err.Error())
		case strings.Contains(err.Error(), "already in progress"):
			h.respondError(w, http.StatusConflict, "Resolution already in progress for this person")
		default:
			h.respondError(w, http.StatusInternalServerError, "Failed to resolve identity")
		}
		return
	}

	resolveResult, ok := result.(*commands.ResolveIdentityResult)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Unexpected resolution result")
		return
	}

	response := ResolveResponse{
		GraphID:      resolveResult.GraphID,
		Confidence:   resolveResult.Confidence,
		NodesFetched: resolveResult.NodesFetched,
		NodesFailed:  resolveResult.NodesFailed,
		Message:      "Identity resolved successfully",
		CreatedAt:    utils.NowRFC3339(),
	}

	h.respondJSON(w, http.StatusCreated, response)
}

func (h *ResolveHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ResolveHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
