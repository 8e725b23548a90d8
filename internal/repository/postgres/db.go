package postgres

import (
	"context"
	"database/sql"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// nullFloat converts an optional coordinate to a SQL parameter.
func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// nullString converts an empty string to a SQL NULL parameter.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// floatPtr converts a scanned nullable column back to an optional field.
func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
