package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhans-k/ride-dispatch/pkg/metrics"
	"github.com/zhans-k/ride-dispatch/pkg/trm"
)

const serviceName = "dispatch"

type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// TxorDB returns the transaction carried in the context, or the pool when
// no transaction is open.
func TxorDB(ctx context.Context, db *pgxpool.Pool) Querier {
	tx, ok := ctx.Value(trm.TxKey).(pgx.Tx)
	if !ok {
		return db
	}
	return tx
}

// observe records the query counter and duration histogram for one repo
// call. Deferred with a pointer so it reads the method's final error.
func observe(operation string, start time.Time, err *error) {
	metrics.RecordDatabaseQuery(serviceName, operation, *err, time.Since(start))
}
