// Package postgres provides the PostgreSQL implementation of the reference
// repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maltroom/cellarman/internal/domain"
)

// Repository implements reference.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Search retrieves catalog entries whose name contains the query, ranked by
// how early the match occurs, then alphabetically. POSITION treats the query
// as a literal substring, so % and _ in user input never act as wildcards.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	sql := `
		SELECT name, age, strength, bottle_size, year_bottled
		FROM master_whiskies
		WHERE POSITION(LOWER($1) IN LOWER(name)) > 0
		ORDER BY POSITION(LOWER($1) IN LOWER(name)), name
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.CatalogEntry, 0)
	for rows.Next() {
		var entry domain.CatalogEntry
		if err := rows.Scan(
			&entry.Name,
			&entry.Age,
			&entry.Strength,
			&entry.BottleSize,
			&entry.YearBottled,
		); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}

	return entries, nil
}
