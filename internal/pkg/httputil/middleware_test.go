package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maltroom/cellarman/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	email string
	err   error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, _ string) (string, error) {
	return s.email, s.err
}

type stubResolver struct {
	role  domain.Role
	found bool
	err   error
}

func (s *stubResolver) ResolveRole(_ context.Context, _ string) (domain.Role, bool, error) {
	return s.role, s.found, s.err
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	var called bool
	h := RequireAuth(&stubAuthenticator{email: "a@example.com"})(okHandler(t, &called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bottles", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called, "handler must not run without a credential")
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	var called bool
	h := RequireAuth(&stubAuthenticator{email: "a@example.com"})(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/bottles", nil)
	req.Header.Set("Authorization", "Basic abcdef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_VerificationFailure(t *testing.T) {
	var called bool
	h := RequireAuth(&stubAuthenticator{err: errors.New("bad signature")})(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/bottles", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired credential")
	assert.False(t, called)
}

func TestRequireAuth_AttachesEmail(t *testing.T) {
	var gotEmail string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = GetEmail(r.Context())
	})
	h := RequireAuth(&stubAuthenticator{email: "member@example.com"})(inner)

	req := httptest.NewRequest(http.MethodGet, "/bottles", nil)
	req.Header.Set("Authorization", "Bearer valid")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "member@example.com", gotEmail)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		resolver   *stubResolver
		email      string
		min        domain.Role
		wantStatus int
	}{
		{"admin passes admin gate", &stubResolver{role: domain.RoleAdmin, found: true}, "a@x", domain.RoleAdmin, http.StatusOK},
		{"superadmin passes admin gate", &stubResolver{role: domain.RoleSuperadmin, found: true}, "a@x", domain.RoleAdmin, http.StatusOK},
		{"user fails admin gate", &stubResolver{role: domain.RoleUser, found: true}, "a@x", domain.RoleAdmin, http.StatusForbidden},
		{"unregistered email fails", &stubResolver{found: false}, "a@x", domain.RoleAdmin, http.StatusForbidden},
		{"missing email fails closed", &stubResolver{role: domain.RoleAdmin, found: true}, "", domain.RoleAdmin, http.StatusUnauthorized},
		{"resolver failure is 500", &stubResolver{err: errors.New("db down")}, "a@x", domain.RoleAdmin, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			h := RequireRole(tt.resolver, tt.min)(okHandler(t, &called))

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.email != "" {
				req = req.WithContext(context.WithValue(req.Context(), EmailKey, tt.email))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	allowed := []string{"https://club.linux.yoga", "http://localhost:8000"}
	var called bool
	h := CORSMiddleware(allowed)(okHandler(t, &called))

	t.Run("allowed origin echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://club.linux.yoga")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "https://club.linux.yoga", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodOptions, "/bottles", nil)
		req.Header.Set("Origin", "http://localhost:8000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, called, "preflight must not reach the handler")
		assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	})
}
