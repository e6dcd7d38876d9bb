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
	"github.com/zhans-k/ride-dispatch/pkg/postgres"
)

type OfferRepo struct {
	db *pgxpool.Pool
}

func NewOfferRepo(db *pgxpool.Pool) *OfferRepo {
	return &OfferRepo{db: db}
}

// Create inserts a pending offer. The UNIQUE(booking_id, driver_id)
// constraint turns an idempotent re-offer into ErrDuplicateOffer.
func (r *OfferRepo) Create(ctx context.Context, bookingID, driverID uuid.UUID) (_ *models.BookingOffer, err error) {
	defer observe("offer_create", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	offer := &models.BookingOffer{
		BookingID: bookingID,
		DriverID:  driverID,
		Status:    types.OfferPending,
	}

	query := `
		INSERT INTO booking_offers (booking_id, driver_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;`

	err = q.QueryRow(ctx, query, bookingID, driverID, offer.Status).Scan(&offer.ID, &offer.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, types.ErrDuplicateOffer
		}
		if postgres.IsForeignKeyViolation(err) {
			return nil, types.ErrBookingNotFound
		}
		return nil, fmt.Errorf("offer repo: Create: %w", err)
	}

	return offer, nil
}

func (r *OfferRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID) (_ []*models.BookingOffer, err error) {
	defer observe("offer_list_by_booking", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, booking_id, driver_id, status, created_at
		FROM booking_offers
		WHERE booking_id = $1
		ORDER BY created_at;`

	rows, err := q.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("offer repo: ListByBooking: %w", err)
	}
	defer rows.Close()

	var offers []*models.BookingOffer
	for rows.Next() {
		var o models.BookingOffer
		if err := rows.Scan(&o.ID, &o.BookingID, &o.DriverID, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("offer repo: ListByBooking scan: %w", err)
		}
		offers = append(offers, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offer repo: ListByBooking rows: %w", err)
	}

	return offers, nil
}

func (r *OfferRepo) GetByDriver(ctx context.Context, bookingID, driverID uuid.UUID) (_ *models.BookingOffer, err error) {
	defer observe("offer_get_by_driver", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id, booking_id, driver_id, status, created_at
		FROM booking_offers
		WHERE booking_id = $1 AND driver_id = $2;`

	var o models.BookingOffer
	err = q.QueryRow(ctx, query, bookingID, driverID).Scan(&o.ID, &o.BookingID, &o.DriverID, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repo: GetByDriver: %w", err)
	}

	return &o, nil
}

// Resolve accepts the winner's offer and rejects every sibling, inside the
// same transaction that assigns the driver to the booking.
func (r *OfferRepo) Resolve(ctx context.Context, bookingID, winningDriverID uuid.UUID) (err error) {
	defer observe("offer_resolve", time.Now(), &err)
	q := TxorDB(ctx, r.db)

	acceptQuery := `
		UPDATE booking_offers
		SET status = $3
		WHERE booking_id = $1 AND driver_id = $2;`

	// A direct claim has no offer row for the winner; zero rows affected
	// is fine. Selecting an offer verifies its existence beforehand.
	if _, err := q.Exec(ctx, acceptQuery, bookingID, winningDriverID, types.OfferAccepted); err != nil {
		return fmt.Errorf("offer repo: Resolve (accept): %w", err)
	}

	rejectQuery := `
		UPDATE booking_offers
		SET status = $3
		WHERE booking_id = $1 AND driver_id <> $2 AND status = $4;`

	if _, err := q.Exec(ctx, rejectQuery, bookingID, winningDriverID, types.OfferRejected, types.OfferPending); err != nil {
		return fmt.Errorf("offer repo: Resolve (reject): %w", err)
	}

	return nil
}
