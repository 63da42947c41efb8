package repository

import (
	"context"
	"database/sql"
)

// queryer is implemented by *sql.DB, *sql.Conn and *sql.Tx so that read
// queries can run either standalone or inside an allocation transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
