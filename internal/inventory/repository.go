package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/maltroom/cellarman/internal/domain"
)

// Repository defines the interface for bottle storage.
type Repository interface {
	List(ctx context.Context) ([]domain.Bottle, error)
	// Get returns ErrBottleNotFound when no bottle matches id.
	Get(ctx context.Context, id uuid.UUID) (*domain.Bottle, error)
	Create(ctx context.Context, bottle *domain.Bottle) error
	// Update overwrites the full record. Returns ErrBottleNotFound when no
	// bottle matches.
	Update(ctx context.Context, bottle *domain.Bottle) error
	// Delete returns ErrBottleNotFound when no bottle matches.
	Delete(ctx context.Context, id uuid.UUID) error
}
