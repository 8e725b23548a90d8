package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

const orderSelect = `SELECT o.id, o.customer_phone, o.from_address, o.to_address,
	o.from_lat, o.from_lng, o.to_lat, o.to_lng,
	COALESCE(o.assigned_driver_id::text, ''), COALESCE(d.callsign, ''),
	o.status, o.created_at
	FROM ride_orders o
	LEFT JOIN drivers d ON d.id = o.assigned_driver_id`

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.RideOrder) error {
	query := `INSERT INTO ride_orders
		(id, customer_phone, from_address, to_address, from_lat, from_lng, to_lat, to_lng, assigned_driver_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.ExecContext(ctx, query,
		order.ID, order.CustomerPhone, order.FromAddress, order.ToAddress,
		nullFloat(order.FromLat), nullFloat(order.FromLng),
		nullFloat(order.ToLat), nullFloat(order.ToLng),
		nullString(order.AssignedDriverID), order.Status, order.CreatedAt)
	return err
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.RideOrder, error) {
	return r.scanOne(r.q.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
}

// GetForUpdate retrieves an order by ID with an exclusive row lock on
// the order row. Meaningful only when the repository is transaction-bound.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*domain.RideOrder, error) {
	// FOR UPDATE OF o: lock only the order row, not the joined driver.
	return r.scanOne(r.q.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id))
}

// Search retrieves orders matching term by phone, addresses or status,
// newest first.
func (r *OrderRepository) Search(ctx context.Context, term string) ([]*domain.RideOrder, error) {
	query := orderSelect + `
		WHERE $1::text = '' OR o.customer_phone ILIKE '%' || $1 || '%'
			OR o.from_address ILIKE '%' || $1 || '%'
			OR o.to_address ILIKE '%' || $1 || '%'
			OR o.status ILIKE '%' || $1 || '%'
		ORDER BY o.created_at DESC`
	rows, err := r.q.QueryContext(ctx, query, term)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// Update persists all mutable fields of an existing order.
func (r *OrderRepository) Update(ctx context.Context, order *domain.RideOrder) error {
	query := `UPDATE ride_orders SET customer_phone = $1, from_address = $2, to_address = $3,
		from_lat = $4, from_lng = $5, to_lat = $6, to_lng = $7,
		assigned_driver_id = $8, status = $9
		WHERE id = $10`
	result, err := r.q.ExecContext(ctx, query,
		order.CustomerPhone, order.FromAddress, order.ToAddress,
		nullFloat(order.FromLat), nullFloat(order.FromLng),
		nullFloat(order.ToLat), nullFloat(order.ToLng),
		nullString(order.AssignedDriverID), order.Status, order.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM ride_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *OrderRepository) scanOne(row *sql.Row) (*domain.RideOrder, error) {
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) scanAll(rows *sql.Rows) ([]*domain.RideOrder, error) {
	defer rows.Close()

	var orders []*domain.RideOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.RideOrder, error) {
	var order domain.RideOrder
	var fromLat, fromLng, toLat, toLng sql.NullFloat64
	err := row.Scan(
		&order.ID, &order.CustomerPhone, &order.FromAddress, &order.ToAddress,
		&fromLat, &fromLng, &toLat, &toLng,
		&order.AssignedDriverID, &order.AssignedDriverCallsign,
		&order.Status, &order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.FromLat = floatPtr(fromLat)
	order.FromLng = floatPtr(fromLng)
	order.ToLat = floatPtr(toLat)
	order.ToLng = floatPtr(toLng)
	return &order, nil
}
