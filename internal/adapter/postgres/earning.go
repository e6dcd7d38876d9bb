package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/postgres"
)

type EarningRepo struct {
	db *pgxpool.Pool
}

func NewEarningRepo(db *pgxpool.Pool) *EarningRepo {
	return &EarningRepo{db: db}
}

// Append inserts the ledger row for a completed booking. The ledger is
// append-only; the UNIQUE(booking_id) constraint guarantees at most one
// row per booking even if a completion is replayed.
func (r *EarningRepo) Append(ctx context.Context, earning *models.DriverEarning) (err error) {
	defer observe("earning_append", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO driver_earnings (driver_id, booking_id, amount, commission, net_earning, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;`

	err = q.QueryRow(ctx, query,
		earning.DriverID,
		earning.BookingID,
		earning.Amount,
		earning.Commission,
		earning.NetEarning,
		types.EarningRecorded,
	).Scan(&earning.ID, &earning.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("earning repo: Append: booking already settled: %w", types.ErrInvalidStateTransition)
		}
		return fmt.Errorf("earning repo: Append: %w", err)
	}

	earning.Status = types.EarningRecorded

	return nil
}
