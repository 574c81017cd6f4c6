package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bottle is a bottle owned by the club.
// The free-text attributes are nullable in storage; rendering placeholder
// values for absent attributes is a presentation concern, see
// inventory.BottleResponse.
type Bottle struct {
	ID          uuid.UUID
	Name        string
	Age         *string
	Strength    *string
	BottleSize  *string
	YearBottled *string
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CatalogEntry is a row from the read-only master whisky catalog used to
// pre-fill bottle forms. It is a separate dataset from the club's own
// bottles.
type CatalogEntry struct {
	Name        string
	Age         *string
	Strength    *string
	BottleSize  *string
	YearBottled *string
}
