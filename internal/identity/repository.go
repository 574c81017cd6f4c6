package identity

import (
	"context"

	"github.com/maltroom/cellarman/internal/domain"
)

// Repository defines the interface for member record storage.
type Repository interface {
	// GetByEmail returns ErrUserNotFound when no record exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts a new member. When the store holds no records yet the
	// record is created with RoleSuperadmin regardless of the requested
	// role; the check and the insert are atomic, so concurrent first
	// logins can never both claim the seat. The assigned role is written
	// back to user. Returns ErrUserExists on duplicate email.
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	// UpdateRole returns ErrUserNotFound when no record matches email.
	UpdateRole(ctx context.Context, email string, role domain.Role) error
}
