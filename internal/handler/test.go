package handler

import (
	"log/slog"
	"net/http"
	"time"

	"testtaker/internal/domain/services"
	"testtaker/internal/httputil"
)

// TestHandler handles test HTTP requests
type TestHandler struct {
	testService services.TestService
	logger      *slog.Logger
}

// NewTestHandler creates a new test handler
func NewTestHandler(testService services.TestService, logger *slog.Logger) *TestHandler {
	return &TestHandler{
		testService: testService,
		logger:      logger,
	}
}

type updateTestRequest struct {
	Title        *string                 `json:"title"`
	FolderID     httputil.OptionalString `json:"folder_id"`
	IsStarred    *bool                   `json:"is_starred"`
	LastAccessed *time.Time              `json:"last_accessed"`
}

// ListTests lists the user's tests with stats and set titles
// GET /tests
func (h *TestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tests, err := h.testService.ListTests(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tests)
}

// GetTest returns a test with its content
// GET /tests/{id}
func (h *TestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Test")
	if !ok {
		return
	}

	test, err := h.testService.GetTest(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, test)
}

// UpdateTest renames, moves, stars or touches a test
// PATCH /tests/{id}
func (h *TestHandler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Test")
	if !ok {
		return
	}

	var body updateTestRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := services.UpdateTestRequest{
		Title: body.Title,
		FolderID: services.OptionalID{
			Present: body.FolderID.Present,
			Value:   body.FolderID.Value,
		},
		IsStarred:    body.IsStarred,
		LastAccessed: body.LastAccessed,
	}

	test, err := h.testService.UpdateTest(r.Context(), userID, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, test)
}

// DeleteTest deletes a test and its attempts
// DELETE /tests/{id}
func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Test")
	if !ok {
		return
	}

	if err := h.testService.DeleteTest(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "Test deleted"})
}

// ResetStats excludes every past attempt of a test from its statistics
// POST /tests/{id}/reset_stats
func (h *TestHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Test")
	if !ok {
		return
	}

	if err := h.testService.ResetStats(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "Stats reset successfully"})
}
