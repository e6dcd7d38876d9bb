package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{db: db}
}

func (r *DriverRepo) Get(ctx context.Context, driverID uuid.UUID) (_ *models.Driver, err error) {
	defer observe("driver_get", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, approved, online, vehicle_id, vehicle_class,
		       last_lat, last_lng, total_rides, total_earnings, rating
		FROM drivers
		WHERE id = $1;`

	var d models.Driver
	var lastLat, lastLng *float64
	err = q.QueryRow(ctx, query, driverID).Scan(
		&d.ID, &d.Approved, &d.Online, &d.VehicleID, &d.VehicleClass,
		&lastLat, &lastLng, &d.TotalRides, &d.TotalEarnings, &d.Rating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("driver repo: Get: %w", err)
	}

	if lastLat != nil && lastLng != nil {
		d.LastLocation = &models.Location{Latitude: *lastLat, Longitude: *lastLng}
	}

	return &d, nil
}

// SetOnline flips the availability flag and reports whether the stored
// value actually changed, so callers keep the online gauge exact.
func (r *DriverRepo) SetOnline(ctx context.Context, driverID uuid.UUID, online bool) (_ bool, err error) {
	defer observe("driver_set_online", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE drivers d
		SET online = $2, updated_at = now()
		FROM (SELECT online FROM drivers WHERE id = $1 FOR UPDATE) prev
		WHERE d.id = $1
		RETURNING prev.online;`

	var was bool
	if err := q.QueryRow(ctx, query, driverID, online).Scan(&was); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, types.ErrDriverNotFound
		}
		return false, fmt.Errorf("driver repo: SetOnline: %w", err)
	}

	return was != online, nil
}

func (r *DriverRepo) UpdateLocation(ctx context.Context, driverID uuid.UUID, loc models.Location) (err error) {
	defer observe("driver_update_location", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `UPDATE drivers SET last_lat = $2, last_lng = $3, updated_at = now() WHERE id = $1;`

	cmdTag, err := q.Exec(ctx, query, driverID, loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("driver repo: UpdateLocation: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}

	return nil
}

// ApplyCompletionTotals bumps the denormalized running totals. Called only
// inside the transaction that writes the terminal COMPLETED status, so the
// totals can never drift from the ledger.
func (r *DriverRepo) ApplyCompletionTotals(ctx context.Context, driverID uuid.UUID, netEarning int64) (err error) {
	defer observe("driver_apply_completion_totals", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE drivers
		SET total_rides = total_rides + 1,
		    total_earnings = total_earnings + $2,
		    updated_at = now()
		WHERE id = $1;`

	cmdTag, err := q.Exec(ctx, query, driverID, netEarning)
	if err != nil {
		return fmt.Errorf("driver repo: ApplyCompletionTotals: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrDriverNotFound
	}

	return nil
}
