package repository

import (
	"context"

	"dispatch/internal/domain"
)

// OrderRepository defines the persistence operations for ride orders.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.RideOrder) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.RideOrder, error)

	// GetForUpdate retrieves an order by ID holding an exclusive row
	// lock. The lock is effective only within a transaction.
	GetForUpdate(ctx context.Context, id string) (*domain.RideOrder, error)

	// Search retrieves orders whose phone, addresses or status match
	// term, newest first. Empty term matches everything.
	Search(ctx context.Context, term string) ([]*domain.RideOrder, error)

	// Update persists all mutable fields of an existing order.
	Update(ctx context.Context, order *domain.RideOrder) error

	// Delete removes an order.
	Delete(ctx context.Context, id string) error
}
