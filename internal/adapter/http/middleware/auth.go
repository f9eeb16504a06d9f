package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/checkledger/internal/infrastructure/auth"
	"github.com/iho/checkledger/internal/infrastructure/metrics"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ClaimsContextKey is the context key for the authenticated operator
	ClaimsContextKey ContextKey = "claims"
)

// Authenticator verifies bearer tokens.
type Authenticator interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware requires a valid bearer token. Viewers may only use safe
// methods; everything else needs the operator role.
func AuthMiddleware(verifier Authenticator, m *metrics.Metrics) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, status int, reason, message string) {
		if m != nil {
			m.AuthFailures.WithLabelValues(reason).Inc()
		}
		writeJSONError(w, status, message)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, http.StatusUnauthorized, "missing", "missing authorization header")
				return
			}

			// Parse Bearer token
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				reject(w, http.StatusUnauthorized, "malformed", "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				reason := "invalid"
				if errors.Is(err, auth.ErrExpiredToken) {
					reason = "expired"
				}
				reject(w, http.StatusUnauthorized, reason, "invalid or expired token")
				return
			}

			if !isSafeMethod(r.Method) && !claims.Role.CanWrite() {
				reject(w, http.StatusForbidden, "forbidden", "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaimsFromContext extracts the authenticated operator from context
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	return claims, ok
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
