package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, callsign, status, lat, lng`

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `INSERT INTO drivers (id, callsign, status, lat, lng) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID, driver.Callsign, driver.Status, nullFloat(driver.Lat), nullFloat(driver.Lng))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return repository.ErrDuplicateCallsign
	}
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a driver by ID with an exclusive row lock.
// Meaningful only when the repository is transaction-bound.
func (r *DriverRepository) GetForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByCallsign retrieves a driver by callsign.
func (r *DriverRepository) GetByCallsign(ctx context.Context, callsign string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE callsign = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, callsign))
}

// Search retrieves drivers matching term by callsign or status, ordered
// by callsign.
func (r *DriverRepository) Search(ctx context.Context, term string) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers
		WHERE $1::text = '' OR callsign ILIKE '%' || $1 || '%' OR status ILIKE '%' || $1 || '%'
		ORDER BY callsign`
	rows, err := r.q.QueryContext(ctx, query, term)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// ListAvailableWithPosition retrieves Available drivers with a known
// position, ordered by callsign.
func (r *DriverRepository) ListAvailableWithPosition(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers
		WHERE status = $1 AND lat IS NOT NULL AND lng IS NOT NULL
		ORDER BY callsign`
	rows, err := r.q.QueryContext(ctx, query, domain.DriverStatusAvailable)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// Update persists all mutable fields of an existing driver.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `UPDATE drivers SET callsign = $1, status = $2, lat = $3, lng = $4 WHERE id = $5`
	result, err := r.q.ExecContext(ctx, query,
		driver.Callsign, driver.Status, nullFloat(driver.Lat), nullFloat(driver.Lng), driver.ID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes a driver. The assigned_driver_id foreign key is
// declared ON DELETE SET NULL, so orders keep their other fields.
func (r *DriverRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *DriverRepository) scanOne(row *sql.Row) (*domain.Driver, error) {
	var driver domain.Driver
	var lat, lng sql.NullFloat64
	err := row.Scan(&driver.ID, &driver.Callsign, &driver.Status, &lat, &lng)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	driver.Lat = floatPtr(lat)
	driver.Lng = floatPtr(lng)
	return &driver, nil
}

func (r *DriverRepository) scanAll(rows *sql.Rows) ([]*domain.Driver, error) {
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&driver.ID, &driver.Callsign, &driver.Status, &lat, &lng); err != nil {
			return nil, err
		}
		driver.Lat = floatPtr(lat)
		driver.Lng = floatPtr(lng)
		drivers = append(drivers, &driver)
	}
	return drivers, rows.Err()
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
