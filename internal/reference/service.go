package reference

import (
	"context"
	"fmt"
	"strings"

	"github.com/maltroom/cellarman/internal/domain"
)

const (
	// minQueryLength is the shortest query worth hitting storage for;
	// anything shorter yields an empty result without a lookup.
	minQueryLength = 2

	// maxResults caps how many suggestions a single search returns.
	maxResults = 10
)

// Service provides catalog autocomplete lookups.
type Service struct {
	repo Repository
}

// NewService creates a new reference service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search returns up to maxResults catalog entries matching the query.
// Queries shorter than minQueryLength after trimming return an empty slice.
func (s *Service) Search(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return []domain.CatalogEntry{}, nil
	}

	entries, err := s.repo.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	return entries, nil
}
