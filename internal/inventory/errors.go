package inventory

import "errors"

var (
	// ErrBottleNotFound is returned when no bottle matches the identifier.
	ErrBottleNotFound = errors.New("bottle not found")

	// ErrNameRequired is returned when a bottle name is missing or
	// normalizes to empty.
	ErrNameRequired = errors.New("name is required")

	// ErrNoFields is returned when a partial update supplies nothing.
	ErrNoFields = errors.New("no fields to update")
)
