// Package inventory manages the club's own bottle catalog.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/pkg/ctxlog"
)

// Service implements bottle business logic.
type Service struct {
	repo Repository
}

// NewService creates a new inventory service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds data for creating a bottle. Optional free-text fields
// that are empty after trimming are stored as absent.
type CreateInput struct {
	Name        string
	Age         string
	Strength    string
	BottleSize  string
	YearBottled string
	Price       float64
}

// UpdateInput holds a partial update: only non-nil fields change.
type UpdateInput struct {
	Name        *string
	Age         *string
	Strength    *string
	BottleSize  *string
	YearBottled *string
	Price       *float64
}

// List returns all bottles.
func (s *Service) List(ctx context.Context) ([]domain.Bottle, error) {
	bottles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bottles: %w", err)
	}
	return bottles, nil
}

// Create validates and stores a new bottle.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Bottle, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	bottle := &domain.Bottle{
		ID:          uuid.New(),
		Name:        name,
		Age:         optional(input.Age),
		Strength:    optional(input.Strength),
		BottleSize:  optional(input.BottleSize),
		YearBottled: optional(input.YearBottled),
		Price:       input.Price,
	}

	if err := s.repo.Create(ctx, bottle); err != nil {
		return nil, fmt.Errorf("create bottle: %w", err)
	}

	ctxlog.FromContext(ctx).Info("bottle created", "id", bottle.ID, "name", bottle.Name)

	return bottle, nil
}

// Update applies a partial update: only supplied fields change, everything
// else is left untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*domain.Bottle, error) {
	if input.Name == nil && input.Age == nil && input.Strength == nil &&
		input.BottleSize == nil && input.YearBottled == nil && input.Price == nil {
		return nil, ErrNoFields
	}

	bottle, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		bottle.Name = name
	}
	if input.Age != nil {
		bottle.Age = optional(*input.Age)
	}
	if input.Strength != nil {
		bottle.Strength = optional(*input.Strength)
	}
	if input.BottleSize != nil {
		bottle.BottleSize = optional(*input.BottleSize)
	}
	if input.YearBottled != nil {
		bottle.YearBottled = optional(*input.YearBottled)
	}
	if input.Price != nil {
		bottle.Price = *input.Price
	}

	if err := s.repo.Update(ctx, bottle); err != nil {
		return nil, err
	}

	return bottle, nil
}

// Delete removes a bottle.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("bottle deleted", "id", id)

	return nil
}

// optional trims s and returns nil for empty strings.
func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
