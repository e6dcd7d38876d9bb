package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

// fakeTxManager serializes transactions with a single mutex, which gives
// the tests the same mutual exclusion the row lock gives the real store.
// Nested Do calls run inside the enclosing transaction.
type fakeTxManager struct {
	mu sync.Mutex
}

type fakeTxKey struct{}

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(context.WithValue(ctx, fakeTxKey{}, struct{}{}))
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*models.Booking)}
}

func copyBooking(b *models.Booking) *models.Booking {
	cp := *b
	return &cp
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.BookingNumber == booking.BookingNumber {
			return nil, types.ErrDuplicateBookingNumber
		}
	}

	cp := copyBooking(booking)
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	r.bookings[cp.ID] = cp
	return copyBooking(cp), nil
}

func (r *fakeBookingRepo) Get(_ context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[bookingID]
	if !ok {
		return nil, types.ErrBookingNotFound
	}
	return copyBooking(booking), nil
}

func (r *fakeBookingRepo) GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	return r.Get(ctx, bookingID)
}

func (r *fakeBookingRepo) ListAvailable(_ context.Context, class types.VehicleClass) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Booking
	for _, b := range r.bookings {
		if b.Status == types.StatusPending && b.VehicleClass == class {
			out = append(out, copyBooking(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[booking.ID]; !ok {
		return types.ErrBookingNotFound
	}
	r.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (r *fakeBookingRepo) CountByDate(_ context.Context, _ time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings), nil
}

func (r *fakeBookingRepo) ActiveByDriver(_ context.Context, driverID uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.DriverID != nil && *b.DriverID == driverID && !b.Status.IsTerminal() && b.Status != types.StatusPending {
			return copyBooking(b), nil
		}
	}
	return nil, types.ErrBookingNotFound
}

// collideOnceBookingRepo reports a booking-number collision on the first
// insert, the way a concurrent create losing the unique-index race does.
type collideOnceBookingRepo struct {
	*fakeBookingRepo

	createMu sync.Mutex
	creates  int
}

func (r *collideOnceBookingRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	r.createMu.Lock()
	r.creates++
	first := r.creates == 1
	r.createMu.Unlock()

	if first {
		return nil, types.ErrDuplicateBookingNumber
	}
	return r.fakeBookingRepo.Create(ctx, booking)
}

func (r *collideOnceBookingRepo) attempts() int {
	r.createMu.Lock()
	defer r.createMu.Unlock()
	return r.creates
}

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers []*models.BookingOffer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{}
}

func (r *fakeOfferRepo) Create(_ context.Context, bookingID, driverID uuid.UUID) (*models.BookingOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.offers {
		if o.BookingID == bookingID && o.DriverID == driverID {
			return nil, types.ErrDuplicateOffer
		}
	}

	offer := &models.BookingOffer{
		ID:        uuid.New(),
		BookingID: bookingID,
		DriverID:  driverID,
		Status:    types.OfferPending,
		CreatedAt: time.Now(),
	}
	r.offers = append(r.offers, offer)

	cp := *offer
	return &cp, nil
}

func (r *fakeOfferRepo) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]*models.BookingOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.BookingOffer
	for _, o := range r.offers {
		if o.BookingID == bookingID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) GetByDriver(_ context.Context, bookingID, driverID uuid.UUID) (*models.BookingOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.offers {
		if o.BookingID == bookingID && o.DriverID == driverID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, types.ErrOfferNotFound
}

func (r *fakeOfferRepo) Resolve(_ context.Context, bookingID, winningDriverID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.offers {
		if o.BookingID != bookingID {
			continue
		}
		switch {
		case o.DriverID == winningDriverID:
			o.Status = types.OfferAccepted
		case o.Status == types.OfferPending:
			o.Status = types.OfferRejected
		}
	}
	return nil
}

type fakeEarningRepo struct {
	mu       sync.Mutex
	earnings []*models.DriverEarning
}

func newFakeEarningRepo() *fakeEarningRepo {
	return &fakeEarningRepo{}
}

func (r *fakeEarningRepo) Append(_ context.Context, earning *models.DriverEarning) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.earnings {
		if e.BookingID == earning.BookingID {
			return types.ErrInvalidStateTransition
		}
	}

	cp := *earning
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	r.earnings = append(r.earnings, &cp)
	return nil
}

func (r *fakeEarningRepo) byBooking(bookingID uuid.UUID) []*models.DriverEarning {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.DriverEarning
	for _, e := range r.earnings {
		if e.BookingID == bookingID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

type fakeDriverRepo struct {
	mu      sync.Mutex
	drivers map[uuid.UUID]*models.Driver
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{drivers: make(map[uuid.UUID]*models.Driver)}
}

func (r *fakeDriverRepo) add(driver *models.Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *driver
	r.drivers[driver.ID] = &cp
}

func (r *fakeDriverRepo) Get(_ context.Context, driverID uuid.UUID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, ok := r.drivers[driverID]
	if !ok {
		return nil, types.ErrDriverNotFound
	}
	cp := *driver
	return &cp, nil
}

func (r *fakeDriverRepo) SetOnline(_ context.Context, driverID uuid.UUID, online bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, ok := r.drivers[driverID]
	if !ok {
		return false, types.ErrDriverNotFound
	}
	changed := driver.Online != online
	driver.Online = online
	return changed, nil
}

func (r *fakeDriverRepo) UpdateLocation(_ context.Context, driverID uuid.UUID, loc models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, ok := r.drivers[driverID]
	if !ok {
		return types.ErrDriverNotFound
	}
	driver.LastLocation = &loc
	return nil
}

func (r *fakeDriverRepo) ApplyCompletionTotals(_ context.Context, driverID uuid.UUID, netEarning int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, ok := r.drivers[driverID]
	if !ok {
		return types.ErrDriverNotFound
	}
	driver.TotalRides++
	driver.TotalEarnings += netEarning
	return nil
}

// fakeNotifier records every fan-out call so tests can assert on them.
type fakeNotifier struct {
	mu             sync.Mutex
	created        []uuid.UUID
	offersReceived []uuid.UUID
	assigned       []uuid.UUID
	statusChanged  []types.BookingStatus
	cancelled      []bool // wasPending flag per call
	locations      []models.Location
}

func (n *fakeNotifier) BookingCreated(_ context.Context, booking *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, booking.ID)
}

func (n *fakeNotifier) OfferReceived(_ context.Context, _ *models.Booking, offer *models.BookingOffer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offersReceived = append(n.offersReceived, offer.ID)
}

func (n *fakeNotifier) BookingAssigned(_ context.Context, booking *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, booking.ID)
}

func (n *fakeNotifier) StatusChanged(_ context.Context, booking *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusChanged = append(n.statusChanged, booking.Status)
}

func (n *fakeNotifier) BookingCancelled(_ context.Context, _ *models.Booking, wasPending bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, wasPending)
}

func (n *fakeNotifier) DriverLocation(_ context.Context, _ *models.Booking, _ uuid.UUID, loc models.Location) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.locations = append(n.locations, loc)
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []models.BookingEventMessage
}

func (p *fakePublisher) PublishBookingEvent(_ context.Context, msg models.BookingEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

// stubFare makes settlement arithmetic predictable in tests.
type stubFare struct {
	estimate      int64
	commissionPct float64
}

func (f stubFare) Estimate(_ float64, _ types.VehicleClass, _ time.Time) int64 {
	return f.estimate
}

func (f stubFare) Commission(amount int64) (int64, int64) {
	commission := int64(float64(amount) * f.commissionPct)
	return commission, amount - commission
}

type discardLogger struct{}

func (discardLogger) Debug(context.Context, string, ...any)        {}
func (discardLogger) Info(context.Context, string, ...any)         {}
func (discardLogger) Warn(context.Context, string, ...any)         {}
func (discardLogger) Error(context.Context, string, error, ...any) {}
func (discardLogger) GetSlogLogger() *slog.Logger                  { return slog.New(slog.DiscardHandler) }
