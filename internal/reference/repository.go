package reference

import (
	"context"

	"github.com/maltroom/cellarman/internal/domain"
)

// Repository defines the data access contract for the master whisky catalog.
type Repository interface {
	// Search returns catalog entries whose name contains the query,
	// case-insensitively, best matches first, at most limit entries.
	Search(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error)
}
