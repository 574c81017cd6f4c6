// Package identity provides member authentication and account management on
// top of an external OIDC identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/pkg/ctxlog"
)

// TokenClaims carries the identity extracted from a verified ID token.
type TokenClaims struct {
	Email string
	Name  string
}

// TokenVerifier validates bearer credentials against the identity provider.
// Verify must perform full cryptographic verification (signature, issuer,
// audience, expiry); implementations must never fall back to decoding
// unverified token payloads.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*TokenClaims, error)
	// Exchange trades a one-time authorization code for a raw ID token at
	// the provider's token endpoint. Single best-effort attempt, no retries.
	Exchange(ctx context.Context, code string) (string, error)
}

// Service implements identity business logic.
type Service struct {
	repo     Repository
	verifier TokenVerifier
}

// NewService creates a new identity service.
func NewService(repo Repository, verifier TokenVerifier) *Service {
	return &Service{repo: repo, verifier: verifier}
}

// Login messages surfaced to the client.
const (
	msgFirstUserCreated = "first user - superadmin created"
	msgUserCreated      = "user created"
)

// LoginInput holds a login credential: a pre-issued ID token or a one-time
// authorization code.
type LoginInput struct {
	Token string
	Code  string
}

// LoginResult is the outcome of a login.
type LoginResult struct {
	User *domain.User
	// Message distinguishes first-superadmin creation from regular user
	// creation. Empty for repeat logins.
	Message string
	// IDToken is set when the code exchange flow was used, so the client can
	// present it as the bearer credential on subsequent requests.
	IDToken string
}

// Login verifies the credential and returns the member profile, creating the
// record on first login. The very first record ever created receives
// RoleSuperadmin; all later first-time logins create RoleUser records.
// Repeat logins are idempotent and return the stored profile unchanged.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	token := input.Token
	result := &LoginResult{}

	if token == "" {
		if input.Code == "" {
			return nil, ErrMissingCredential
		}
		exchanged, err := s.verifier.Exchange(ctx, input.Code)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("code exchange failed", "error", err)
			return nil, ErrInvalidCredential
		}
		token = exchanged
		result.IDToken = exchanged
	}

	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("token verification failed", "error", err)
		return nil, ErrInvalidCredential
	}

	user, err := s.repo.GetByEmail(ctx, claims.Email)
	if err == nil {
		result.User = user
		return result, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	// The store assigns RoleSuperadmin atomically when this is the first
	// record ever created; the requested role only applies afterwards.
	newUser := &domain.User{
		Email: claims.Email,
		Name:  claims.Name,
		Role:  domain.RoleUser,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Lost a race with a concurrent first login; the stored record wins.
			existing, getErr := s.repo.GetByEmail(ctx, claims.Email)
			if getErr != nil {
				return nil, fmt.Errorf("get user after insert conflict: %w", getErr)
			}
			result.User = existing
			return result, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	ctxlog.FromContext(ctx).Info("member created", "email", newUser.Email, "role", newUser.Role)

	message := msgUserCreated
	if newUser.Role == domain.RoleSuperadmin {
		message = msgFirstUserCreated
	}

	result.User = newUser
	result.Message = message
	return result, nil
}

// Authenticate verifies a bearer credential and returns the caller's email.
// Backend of the authentication gate.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return "", ErrInvalidCredential
	}
	return claims.Email, nil
}

// ResolveRole looks up a member's role by email. Backend of the role gate.
func (s *Service) ResolveRole(ctx context.Context, email string) (domain.Role, bool, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get user by email: %w", err)
	}
	return user.Role, true, nil
}

// ListUsers returns all member records.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole changes targetEmail's role. Callers cannot change their own
// role, a superadmin's role is immutable, and only the two lower tiers are
// assignable.
func (s *Service) UpdateRole(ctx context.Context, callerEmail, targetEmail string, role domain.Role) (*domain.User, error) {
	if targetEmail == callerEmail {
		return nil, ErrSelfRoleChange
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, ErrInvalidRole
	}

	target, err := s.repo.GetByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if target.Role == domain.RoleSuperadmin {
		return nil, ErrSuperadminImmutable
	}

	if err := s.repo.UpdateRole(ctx, targetEmail, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	ctxlog.FromContext(ctx).Info("member role changed",
		"email", targetEmail,
		"from", target.Role,
		"to", role,
		"changed_by", callerEmail,
	)

	target.Role = role
	return target, nil
}
