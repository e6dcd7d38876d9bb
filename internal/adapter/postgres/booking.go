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
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/postgres"
)

type BookingRepo struct {
	db *pgxpool.Pool
}

func NewBookingRepo(db *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{db: db}
}

const bookingColumns = `
	id, booking_number, rider_id, driver_id, vehicle_id,
	pickup_lat, pickup_lng, pickup_label,
	dropoff_lat, dropoff_lng, dropoff_label,
	vehicle_class, distance_km, notes,
	estimated_fare, final_fare, platform_commission, driver_earning,
	status, payment_method, payment_status,
	cancelled_by, cancellation_reason,
	created_at, accepted_at, started_at, completed_at, cancelled_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.RiderID, &b.DriverID, &b.VehicleID,
		&b.Pickup.Latitude, &b.Pickup.Longitude, &b.Pickup.Label,
		&b.Dropoff.Latitude, &b.Dropoff.Longitude, &b.Dropoff.Label,
		&b.VehicleClass, &b.DistanceKm, &b.Notes,
		&b.EstimatedFare, &b.FinalFare, &b.PlatformCommission, &b.DriverEarning,
		&b.Status, &b.PaymentMethod, &b.PaymentStatus,
		&b.CancelledBy, &b.CancellationReason,
		&b.CreatedAt, &b.AcceptedAt, &b.StartedAt, &b.CompletedAt, &b.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) Create(ctx context.Context, booking *models.Booking) (_ *models.Booking, err error) {
	defer observe("booking_create", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO bookings (
			booking_number, rider_id,
			pickup_lat, pickup_lng, pickup_label,
			dropoff_lat, dropoff_lng, dropoff_label,
			vehicle_class, distance_km, notes,
			estimated_fare, status, payment_method, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at;`

	err = q.QueryRow(ctx, query,
		booking.BookingNumber, booking.RiderID,
		booking.Pickup.Latitude, booking.Pickup.Longitude, booking.Pickup.Label,
		booking.Dropoff.Latitude, booking.Dropoff.Longitude, booking.Dropoff.Label,
		booking.VehicleClass, booking.DistanceKm, booking.Notes,
		booking.EstimatedFare, booking.Status, booking.PaymentMethod, booking.PaymentStatus,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, types.ErrDuplicateBookingNumber
		}
		return nil, fmt.Errorf("booking repo: Create: %w", err)
	}

	return booking, nil
}

func (r *BookingRepo) Get(ctx context.Context, bookingID uuid.UUID) (_ *models.Booking, err error) {
	defer observe("booking_get", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1;`

	booking, err := scanBooking(q.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repo: Get: %w", err)
	}

	return booking, nil
}

// GetForUpdate reads a booking row holding an exclusive lock for the
// duration of the enclosing transaction. Every transition that changes
// status or driver_id must go through this read; it is the single
// mutual-exclusion point that resolves competing claims.
func (r *BookingRepo) GetForUpdate(ctx context.Context, bookingID uuid.UUID) (_ *models.Booking, err error) {
	defer observe("booking_get_for_update", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE;`

	booking, err := scanBooking(q.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repo: GetForUpdate: %w", err)
	}

	return booking, nil
}

func (r *BookingRepo) ListAvailable(ctx context.Context, class types.VehicleClass) (_ []*models.Booking, err error) {
	defer observe("booking_list_available", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND vehicle_class = $2
		ORDER BY created_at;`

	rows, err := q.Query(ctx, query, types.StatusPending, class)
	if err != nil {
		return nil, fmt.Errorf("booking repo: ListAvailable: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("booking repo: ListAvailable scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking repo: ListAvailable rows: %w", err)
	}

	return bookings, nil
}

func (r *BookingRepo) Update(ctx context.Context, booking *models.Booking) (err error) {
	defer observe("booking_update", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE bookings
		SET
			status = $2,
			driver_id = $3,
			vehicle_id = $4,
			final_fare = $5,
			platform_commission = $6,
			driver_earning = $7,
			payment_status = $8,
			cancelled_by = $9,
			cancellation_reason = $10,
			accepted_at = $11,
			started_at = $12,
			completed_at = $13,
			cancelled_at = $14,
			updated_at = now()
		WHERE id = $1;`

	cmdTag, err := q.Exec(ctx, query,
		booking.ID,
		booking.Status,
		booking.DriverID,
		booking.VehicleID,
		booking.FinalFare,
		booking.PlatformCommission,
		booking.DriverEarning,
		booking.PaymentStatus,
		booking.CancelledBy,
		booking.CancellationReason,
		booking.AcceptedAt,
		booking.StartedAt,
		booking.CompletedAt,
		booking.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("booking repo: Update: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return wrap.Error(ctx, types.ErrBookingNotFound)
	}

	return nil
}

// CountByDate backs the daily booking-number sequence.
func (r *BookingRepo) CountByDate(ctx context.Context, date time.Time) (_ int, err error) {
	defer observe("booking_count_by_date", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM bookings WHERE DATE(created_at) = $1;`

	if err := q.QueryRow(ctx, query, date.Format("2006-01-02")).Scan(&count); err != nil {
		return 0, fmt.Errorf("booking repo: CountByDate: %w", err)
	}
	return count, nil
}

// ActiveByDriver returns the driver's current non-terminal assignment,
// or ErrBookingNotFound when the driver has none.
func (r *BookingRepo) ActiveByDriver(ctx context.Context, driverID uuid.UUID) (_ *models.Booking, err error) {
	defer observe("booking_active_by_driver", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE driver_id = $1 AND status IN ($2, $3, $4)
		ORDER BY accepted_at DESC
		LIMIT 1;`

	booking, err := scanBooking(q.QueryRow(ctx, query, driverID,
		types.StatusAccepted, types.StatusArrived, types.StatusStarted))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repo: ActiveByDriver: %w", err)
	}

	return booking, nil
}
