package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/availability"
	"github.com/medimeet/telehealth-platform/internal/ledger"
	"github.com/medimeet/telehealth-platform/internal/observability/metrics"
	"github.com/medimeet/telehealth-platform/internal/sessions"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

var schedulingTracer = otel.Tracer("medimeet.internal.scheduling")

// Service is the booking scheduler. It validates requested slots, runs the
// atomic reserve-and-settle transaction, and performs compensating
// cancellation. It never retries; recoverable failures such as
// ErrSlotUnavailable are returned to the caller, who may re-list slots.
type Service struct {
	store        Store
	accounts     accounts.Repository
	availability availability.Repository
	issuer       sessions.Issuer
	cache        *SlotCache
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger

	cost        int64
	slotLength  time.Duration
	horizonDays int
	now         func() time.Time
}

// ServiceConfig wires the scheduler's collaborators.
type ServiceConfig struct {
	Store        Store
	Accounts     accounts.Repository
	Availability availability.Repository
	Issuer       sessions.Issuer
	Cache        *SlotCache
	Metrics      *metrics.BookingMetrics
	Logger       *logging.Logger

	BookingCost int64
	SlotLength  time.Duration
	HorizonDays int

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewService constructs the scheduler.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Store == nil {
		panic("scheduling: store required")
	}
	if cfg.Accounts == nil {
		panic("scheduling: accounts repository required")
	}
	if cfg.Availability == nil {
		panic("scheduling: availability repository required")
	}
	if cfg.Issuer == nil {
		panic("scheduling: session issuer required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.BookingCost <= 0 {
		cfg.BookingCost = 2
	}
	if cfg.SlotLength <= 0 {
		cfg.SlotLength = 30 * time.Minute
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 4
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:        cfg.Store,
		accounts:     cfg.Accounts,
		availability: cfg.Availability,
		issuer:       cfg.Issuer,
		cache:        cfg.Cache,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		cost:         cfg.BookingCost,
		slotLength:   cfg.SlotLength,
		horizonDays:  cfg.HorizonDays,
		now:          cfg.Now,
	}
}

// ListSlots returns the practitioner's bookable slots over the rolling
// horizon. The listing is a point-in-time snapshot served from cache when
// fresh; reservation re-checks authoritatively at commit.
func (s *Service) ListSlots(ctx context.Context, practitionerID uuid.UUID) ([]DaySchedule, error) {
	if _, err := s.accounts.GetVerifiedPractitioner(ctx, practitionerID); err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if days, ok := s.cache.Get(ctx, practitionerID); ok {
		s.metrics.ObserveSlotCache("hit")
		return days, nil
	}
	s.metrics.ObserveSlotCache("miss")

	window, err := s.availability.GetActive(ctx, practitionerID)
	if err != nil && !errors.Is(err, availability.ErrNoActiveWindow) {
		return nil, err
	}
	bookings, err := s.store.ListActive(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	days := GenerateSlots(window, bookings, s.now(), s.horizonDays, s.slotLength)
	s.cache.Set(ctx, practitionerID, days)
	return days, nil
}

// ReserveRequest is the input to Reserve.
type ReserveRequest struct {
	ClientID       uuid.UUID
	PractitionerID uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	Description    string
}

// Reserve books a slot: it validates the parties and the interval, acquires a
// session token, then atomically re-checks overlap, moves the booking fee from
// client to practitioner, and creates the CONFIRMED booking. Any failure
// leaves no partial state.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*Booking, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("medimeet.practitioner_id", req.PractitionerID.String()),
		attribute.String("medimeet.client_id", req.ClientID.String()),
	)
	started := time.Now()

	booking, err := s.reserve(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveReservation(reservationOutcome(err))
		return nil, err
	}

	s.metrics.ObserveReservation("confirmed")
	s.metrics.ObserveReserveLatency(time.Since(started).Seconds())
	s.cache.Invalidate(ctx, req.PractitionerID)
	s.logger.Info("booking confirmed",
		"booking_id", booking.ID,
		"practitioner_id", req.PractitionerID,
		"client_id", req.ClientID,
		"start_time", booking.StartTime)
	return booking, nil
}

func (s *Service) reserve(ctx context.Context, req ReserveRequest) (*Booking, error) {
	if _, err := s.accounts.GetVerifiedPractitioner(ctx, req.PractitionerID); err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, fmt.Errorf("%w: practitioner %s", ErrNotFound, req.PractitionerID)
		}
		return nil, err
	}
	client, err := s.accounts.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %s", ErrNotFound, req.ClientID)
		}
		return nil, err
	}
	// Only client accounts book sessions. This also keeps cancellation
	// reversals solvent: practitioner balances hold booking earnings only,
	// so the reversal of any active booking is always covered.
	if client.Role != accounts.RoleClient {
		return nil, fmt.Errorf("%w: only clients may book sessions", ErrForbidden)
	}

	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	if !start.Before(end) || end.Sub(start) != s.slotLength {
		return nil, fmt.Errorf("%w: want a %s interval", ErrInvalidSlot, s.slotLength)
	}
	if start.Before(s.now()) {
		return nil, fmt.Errorf("%w: slot start is in the past", ErrInvalidSlot)
	}

	if client.Credits < s.cost {
		return nil, ledger.ErrInsufficientBalance
	}

	// The external call happens before the transaction so its failure cannot
	// strand a committed booking or balance change.
	token, err := s.issuer.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionIssuance, err)
	}

	booking := &Booking{
		ID:             uuid.New(),
		ClientID:       req.ClientID,
		PractitionerID: req.PractitionerID,
		StartTime:      start,
		EndTime:        end,
		Status:         StatusConfirmed,
		Description:    req.Description,
		SessionToken:   token,
	}

	err = s.store.InTx(ctx, req.PractitionerID, func(tx Tx) error {
		active, err := tx.ListActive(ctx, req.PractitionerID)
		if err != nil {
			return err
		}
		for _, b := range active {
			if Overlaps(start, end, b.StartTime, b.EndTime) {
				return ErrSlotUnavailable
			}
		}
		if err := tx.Transfer(ctx, req.ClientID, req.PractitionerID, s.cost, &booking.ID,
			ledger.KindBookingDebit, ledger.KindBookingCredit); err != nil {
			return err
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func reservationOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrSessionIssuance):
		return "session_issuance_failed"
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}

// Cancel transitions a booking to CANCELLED and atomically reverses the
// original transfer in full, whatever the distance to the start time. Either
// party may cancel.
func (s *Service) Cancel(ctx context.Context, callerID, bookingID uuid.UUID) (*Booking, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("medimeet.booking_id", bookingID.String()))

	snapshot, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		s.metrics.ObserveCancellation("not_found")
		return nil, err
	}
	if callerID != snapshot.ClientID && callerID != snapshot.PractitionerID {
		s.metrics.ObserveCancellation("forbidden")
		return nil, ErrForbidden
	}

	var cancelled *Booking
	err = s.store.InTx(ctx, snapshot.PractitionerID, func(tx Tx) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if !booking.Status.Active() {
			return fmt.Errorf("%w: %s", ErrInvalidState, booking.Status)
		}
		if err := tx.Transfer(ctx, booking.PractitionerID, booking.ClientID, s.cost, &booking.ID,
			ledger.KindCancellationReversal, ledger.KindCancellationRefund); err != nil {
			return err
		}
		booking.Status = StatusCancelled
		if err := tx.UpdateBooking(ctx, booking); err != nil {
			return err
		}
		cancelled = booking
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCancellation("error")
		return nil, err
	}

	s.metrics.ObserveCancellation("cancelled")
	s.cache.Invalidate(ctx, snapshot.PractitionerID)
	s.logger.Info("booking cancelled",
		"booking_id", bookingID,
		"practitioner_id", snapshot.PractitionerID,
		"cancelled_by", callerID)
	return cancelled, nil
}

// MarkCompleted transitions a CONFIRMED booking to COMPLETED once its end time
// has passed. Only the booking's practitioner may complete it; the fee stays
// settled, so there is no ledger effect.
func (s *Service) MarkCompleted(ctx context.Context, practitionerID, bookingID uuid.UUID) (*Booking, error) {
	snapshot, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if snapshot.PractitionerID != practitionerID {
		return nil, ErrForbidden
	}

	var completed *Booking
	err = s.store.InTx(ctx, practitionerID, func(tx Tx) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != StatusConfirmed {
			return fmt.Errorf("%w: %s", ErrInvalidState, booking.Status)
		}
		if s.now().Before(booking.EndTime) {
			return ErrTooEarly
		}
		booking.Status = StatusCompleted
		if err := tx.UpdateBooking(ctx, booking); err != nil {
			return err
		}
		completed = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking completed", "booking_id", bookingID, "practitioner_id", practitionerID)
	return completed, nil
}

// AddNotes attaches the practitioner's notes to their own booking.
func (s *Service) AddNotes(ctx context.Context, practitionerID, bookingID uuid.UUID, notes string) (*Booking, error) {
	snapshot, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if snapshot.PractitionerID != practitionerID {
		return nil, ErrForbidden
	}

	var updated *Booking
	err = s.store.InTx(ctx, practitionerID, func(tx Tx) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		booking.Notes = notes
		if err := tx.UpdateBooking(ctx, booking); err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByClient returns the client's bookings, newest first.
func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Booking, error) {
	return s.store.ListByClient(ctx, clientID)
}

// ListUpcomingByPractitioner returns the practitioner's CONFIRMED bookings
// that have not ended yet, ordered by start time.
func (s *Service) ListUpcomingByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error) {
	return s.store.ListUpcomingByPractitioner(ctx, practitionerID, s.now())
}
