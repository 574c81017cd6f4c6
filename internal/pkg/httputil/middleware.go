package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/pkg/ctxlog"
)

// CORSMiddleware creates CORS middleware restricted to a fixed allow-list of
// origins. Preflight OPTIONS requests are answered without reaching handlers.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// Context keys for the verified caller identity.
const (
	EmailKey contextKey = "email"
	RoleKey  contextKey = "role"
)

// Authenticator verifies a bearer credential and returns the caller's email.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (email string, err error)
}

// RoleResolver looks up the role of a registered member by email.
// found is false when no identity record exists for the email.
type RoleResolver interface {
	ResolveRole(ctx context.Context, email string) (role domain.Role, found bool, err error)
}

// RequireAuth creates the authentication gate. It fails closed with 401
// before touching any store when the header is missing or malformed, or when
// verification fails. On success the verified email is attached to the
// request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				Error(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			email, err := auth.Authenticate(r.Context(), parts[1])
			if err != nil {
				Error(w, http.StatusUnauthorized, "invalid or expired credential")
				return
			}

			ctx := context.WithValue(r.Context(), EmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates the role gate. It must run after RequireAuth: the
// caller's identity record is looked up by the context email, and the
// request fails closed with 403 when the record is absent or its role is
// below min.
func RequireRole(resolver RoleResolver, min domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := GetEmail(r.Context())
			if email == "" {
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			role, found, err := resolver.ResolveRole(r.Context(), email)
			if err != nil {
				ctxlog.FromContext(r.Context()).Error("resolve role", "error", err)
				Error(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !found || !role.AtLeast(min) {
				Error(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetEmail extracts the verified caller email from context.
func GetEmail(ctx context.Context) string {
	if email, ok := ctx.Value(EmailKey).(string); ok {
		return email
	}
	return ""
}

// GetRole extracts the resolved caller role from context.
func GetRole(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(RoleKey).(domain.Role); ok {
		return role
	}
	return ""
}
