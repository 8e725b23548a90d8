package repository

import "context"

// Store exposes repositories bound to a single transaction.
type Store interface {
	Drivers() DriverRepository
	Orders() OrderRepository
}

// TxManager runs a function within a transaction boundary. Row locks
// taken via GetForUpdate inside fn are held until fn returns: the
// transaction commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	InTx(ctx context.Context, fn func(s Store) error) error
}
