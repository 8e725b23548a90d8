package postgres

import (
	"context"
	"database/sql"

	"dispatch/internal/repository"
)

// TxManager implements repository.TxManager over database/sql.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

var _ repository.TxManager = (*TxManager)(nil)

// InTx runs fn inside a database transaction. Row locks acquired via
// GetForUpdate on the transaction-bound repositories are held until fn
// returns; the transaction commits on nil and rolls back on error.
func (m *TxManager) InTx(ctx context.Context, fn func(s repository.Store) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	store := &txStore{
		drivers: NewDriverRepositoryWithTx(tx),
		orders:  NewOrderRepositoryWithTx(tx),
	}

	if err := fn(store); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// txStore exposes repositories bound to a single transaction.
type txStore struct {
	drivers *DriverRepository
	orders  *OrderRepository
}

func (s *txStore) Drivers() repository.DriverRepository { return s.drivers }
func (s *txStore) Orders() repository.OrderRepository   { return s.orders }
