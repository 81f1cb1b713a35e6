package httputil

import (
	"context"
	"net/http"

	"testtaker/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	credentialsKey contextKey = "credentials"
)

// WithCredentials adds the authenticated caller to the request context
func WithCredentials(r *http.Request, cred models.Credentials) *http.Request {
	ctx := context.WithValue(r.Context(), credentialsKey, cred)
	return r.WithContext(ctx)
}

// GetCredentials retrieves the authenticated caller from the request context
func GetCredentials(r *http.Request) (models.Credentials, bool) {
	cred, ok := r.Context().Value(credentialsKey).(models.Credentials)
	return cred, ok
}

// GetUserID retrieves the caller's user ID, returns empty string if not found
func GetUserID(r *http.Request) string {
	cred, _ := GetCredentials(r)
	return cred.UserID
}
