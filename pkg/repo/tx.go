// Package repo holds the minimal database access contract shared by
// persistence implementations. Both *pgxpool.Pool and pgx.Tx satisfy Tx,
// so repositories run unchanged inside or outside a transaction.
package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
