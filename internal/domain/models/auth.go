package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims is the subset of Supabase Auth access-token claims the API relies on.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email       string                 `json:"email"`
	Role        string                 `json:"role"` // "authenticated" or "anon"
	SessionID   string                 `json:"session_id"`
	IsAnonymous bool                   `json:"is_anonymous"`
	AppMetadata map[string]interface{} `json:"app_metadata"`
}

// GetUserID returns the user ID from the subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// Credentials is the caller identity for one request. The auth middleware
// builds it and it is passed explicitly to anything acting on the caller's
// behalf, such as storage uploads authorised by the caller's own token.
type Credentials struct {
	UserID      string
	AccessToken string
}
