package handler

import (
	"log/slog"
	"net/http"

	"testtaker/internal/domain/services"
	"testtaker/internal/httputil"
)

// AttemptHandler handles attempt HTTP requests
type AttemptHandler struct {
	attemptService services.AttemptService
	logger         *slog.Logger
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(attemptService services.AttemptService, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		logger:         logger,
	}
}

// CreateAttempt records a finished attempt
// POST /attempts
func (h *AttemptHandler) CreateAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req services.CreateAttemptRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	attempt, err := h.attemptService.RecordAttempt(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, attempt)
}

// ListAttempts lists attempts, most recent first
// GET /attempts?test_id=
func (h *AttemptHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListAttempts(r.Context(), userID, httputil.QueryString(r, "test_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, attempts)
}

// GetAttempt returns one attempt with its review details
// GET /attempts/{id}
func (h *AttemptHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Attempt")
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetAttempt(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, attempt)
}
