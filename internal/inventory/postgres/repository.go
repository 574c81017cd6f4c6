// Package postgres provides the PostgreSQL implementation of the inventory
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/inventory"
)

// Repository implements inventory.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List retrieves all bottles ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]domain.Bottle, error) {
	query := `
		SELECT id, name, age, strength, bottle_size, year_bottled, price, created_at, updated_at
		FROM bottles
		ORDER BY created_at, name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bottles: %w", err)
	}
	defer rows.Close()

	bottles := make([]domain.Bottle, 0)
	for rows.Next() {
		var b domain.Bottle
		if err := rows.Scan(
			&b.ID,
			&b.Name,
			&b.Age,
			&b.Strength,
			&b.BottleSize,
			&b.YearBottled,
			&b.Price,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bottle: %w", err)
		}
		bottles = append(bottles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bottles: %w", err)
	}

	return bottles, nil
}

// Get retrieves a bottle by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Bottle, error) {
	query := `
		SELECT id, name, age, strength, bottle_size, year_bottled, price, created_at, updated_at
		FROM bottles
		WHERE id = $1
	`
	var b domain.Bottle
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Name,
		&b.Age,
		&b.Strength,
		&b.BottleSize,
		&b.YearBottled,
		&b.Price,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrBottleNotFound
		}
		return nil, fmt.Errorf("get bottle: %w", err)
	}

	return &b, nil
}

// Create inserts a new bottle.
func (r *Repository) Create(ctx context.Context, bottle *domain.Bottle) error {
	query := `
		INSERT INTO bottles (id, name, age, strength, bottle_size, year_bottled, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		bottle.ID,
		bottle.Name,
		bottle.Age,
		bottle.Strength,
		bottle.BottleSize,
		bottle.YearBottled,
		bottle.Price,
	).Scan(&bottle.CreatedAt, &bottle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create bottle: %w", err)
	}

	return nil
}

// Update overwrites a bottle record.
func (r *Repository) Update(ctx context.Context, bottle *domain.Bottle) error {
	query := `
		UPDATE bottles
		SET name = $2, age = $3, strength = $4, bottle_size = $5, year_bottled = $6,
		    price = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		bottle.ID,
		bottle.Name,
		bottle.Age,
		bottle.Strength,
		bottle.BottleSize,
		bottle.YearBottled,
		bottle.Price,
	).Scan(&bottle.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.ErrBottleNotFound
		}
		return fmt.Errorf("update bottle: %w", err)
	}

	return nil
}

// Delete removes a bottle by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bottles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bottle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrBottleNotFound
	}

	return nil
}
