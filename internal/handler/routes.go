package handler

import "net/http"

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health   *HealthHandler
	Folders  *FolderHandler
	Tests    *TestHandler
	Attempts *AttemptHandler
	Uploads  *UploadHandler
}

// RegisterRoutes mounts the API on mux
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	// Public
	mux.HandleFunc("GET /{$}", h.Health.Root)
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Folders
	mux.HandleFunc("GET /folders", h.Folders.ListFolders)
	mux.HandleFunc("POST /folders", h.Folders.CreateFolder)
	mux.HandleFunc("PATCH /folders/{id}", h.Folders.UpdateFolder)
	mux.HandleFunc("DELETE /folders/{id}", h.Folders.DeleteFolder)

	// Tests
	mux.HandleFunc("GET /tests", h.Tests.ListTests)
	mux.HandleFunc("GET /tests/{id}", h.Tests.GetTest)
	mux.HandleFunc("PATCH /tests/{id}", h.Tests.UpdateTest)
	mux.HandleFunc("DELETE /tests/{id}", h.Tests.DeleteTest)
	mux.HandleFunc("POST /tests/{id}/reset_stats", h.Tests.ResetStats)

	// Upload
	mux.HandleFunc("POST /upload", h.Uploads.Upload)

	// Attempts
	mux.HandleFunc("POST /attempts", h.Attempts.CreateAttempt)
	mux.HandleFunc("GET /attempts", h.Attempts.ListAttempts)
	mux.HandleFunc("GET /attempts/{id}", h.Attempts.GetAttempt)
}
