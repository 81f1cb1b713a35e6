package middleware

import (
	"net/http"
	"strings"

	"testtaker/internal/auth"
	"testtaker/internal/domain/models"
	"testtaker/internal/httputil"
)

// Auth verifies the bearer token on every request except OPTIONS pre-flights
// and the exact paths listed as public. On success the caller's credentials
// are stored in the request context.
func Auth(verifier auth.JWTVerifier, publicPaths ...string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			cred := models.Credentials{
				UserID:      claims.GetUserID(),
				AccessToken: token,
			}
			next.ServeHTTP(w, httputil.WithCredentials(r, cred))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
