package repository

import (
	"context"

	"dispatch/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetForUpdate retrieves a driver by ID holding an exclusive row
	// lock. The lock is effective only when the repository is bound to
	// a transaction (see TxManager); it is released on commit/rollback.
	GetForUpdate(ctx context.Context, id string) (*domain.Driver, error)

	// GetByCallsign retrieves a driver by callsign.
	GetByCallsign(ctx context.Context, callsign string) (*domain.Driver, error)

	// Search retrieves drivers whose callsign or status matches term,
	// ordered by callsign. Empty term matches everything.
	Search(ctx context.Context, term string) ([]*domain.Driver, error)

	// ListAvailableWithPosition retrieves drivers that are Available
	// and have a known position, ordered by callsign.
	ListAvailableWithPosition(ctx context.Context) ([]*domain.Driver, error)

	// Update persists all mutable fields of an existing driver.
	Update(ctx context.Context, driver *domain.Driver) error

	// Delete removes a driver. Orders referencing it keep running with
	// the assigned driver reference cleared.
	Delete(ctx context.Context, id string) error
}
