package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/internal/ledger"
)

// InMemoryStore keeps bookings in memory for tests and dev mode. InTx takes a
// per-practitioner mutex and buffers every write, applying the batch only when
// fn succeeds, which gives the same all-or-nothing visibility the Postgres
// store gets from its transaction.
type InMemoryStore struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*Booking

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex

	accounts *accounts.InMemoryRepository
	ledger   *ledger.InMemoryRepository
}

// NewInMemoryStore creates an empty store sharing the given account balances
// and ledger.
func NewInMemoryStore(ar *accounts.InMemoryRepository, lr *ledger.InMemoryRepository) *InMemoryStore {
	return &InMemoryStore{
		bookings: make(map[uuid.UUID]*Booking),
		locks:    make(map[uuid.UUID]*sync.Mutex),
		accounts: ar,
		ledger:   lr,
	}
}

func (s *InMemoryStore) lockFor(practitionerID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[practitionerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[practitionerID] = l
	}
	return l
}

type memTransfer struct {
	from, to   uuid.UUID
	amount     int64
	bookingID  *uuid.UUID
	debitKind  ledger.Kind
	creditKind ledger.Kind
}

type memTx struct {
	store     *InMemoryStore
	created   []*Booking
	updated   map[uuid.UUID]*Booking
	transfers []memTransfer
}

// InTx serializes all reservation work for one practitioner behind its mutex.
func (s *InMemoryStore) InTx(ctx context.Context, practitionerID uuid.UUID, fn func(tx Tx) error) error {
	lock := s.lockFor(practitionerID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{store: s, updated: make(map[uuid.UUID]*Booking)}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

func (t *memTx) ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error) {
	committed, err := t.store.ListActive(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	out := make([]*Booking, 0, len(committed)+len(t.created))
	for _, b := range committed {
		if upd, ok := t.updated[b.ID]; ok {
			b = upd
		}
		if b.Status.Active() {
			out = append(out, b)
		}
	}
	for _, b := range t.created {
		if b.PractitionerID == practitionerID && b.Status.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	if b, ok := t.updated[id]; ok {
		copied := *b
		return &copied, nil
	}
	for _, b := range t.created {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return t.store.GetBooking(ctx, id)
}

func (t *memTx) CreateBooking(ctx context.Context, b *Booking) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	copied := *b
	t.created = append(t.created, &copied)
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b *Booking) error {
	b.UpdatedAt = time.Now().UTC()
	copied := *b
	t.updated[b.ID] = &copied
	return nil
}

// Transfer checks the source balance against committed state minus debits
// already buffered in this transaction, then defers the move to commit.
func (t *memTx) Transfer(ctx context.Context, from, to uuid.UUID, amount int64, bookingID *uuid.UUID, debitKind, creditKind ledger.Kind) error {
	if amount <= 0 {
		return fmt.Errorf("scheduling: transfer amount must be positive, got %d", amount)
	}

	account, err := t.store.accounts.GetByID(ctx, from)
	if err != nil {
		return ledger.ErrAccountNotFound
	}
	available := account.Credits
	for _, tr := range t.transfers {
		if tr.from == from {
			available -= tr.amount
		}
		if tr.to == from {
			available += tr.amount
		}
	}
	if available < amount {
		return ledger.ErrInsufficientBalance
	}

	t.transfers = append(t.transfers, memTransfer{
		from: from, to: to, amount: amount,
		bookingID: bookingID, debitKind: debitKind, creditKind: creditKind,
	})
	return nil
}

func (t *memTx) commit(ctx context.Context) error {
	for i, tr := range t.transfers {
		if err := t.store.accounts.AdjustCredits(ctx, tr.from, -tr.amount); err != nil {
			t.unwindTransfers(ctx, i)
			return err
		}
		if err := t.store.accounts.AdjustCredits(ctx, tr.to, tr.amount); err != nil {
			_ = t.store.accounts.AdjustCredits(ctx, tr.from, tr.amount)
			t.unwindTransfers(ctx, i)
			return err
		}
		if _, err := t.store.ledger.Record(ctx, ledger.Transaction{
			AccountID: tr.from, BookingID: tr.bookingID, Amount: -tr.amount, Kind: tr.debitKind,
		}); err != nil {
			return err
		}
		if _, err := t.store.ledger.Record(ctx, ledger.Transaction{
			AccountID: tr.to, BookingID: tr.bookingID, Amount: tr.amount, Kind: tr.creditKind,
		}); err != nil {
			return err
		}
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, b := range t.created {
		copied := *b
		t.store.bookings[b.ID] = &copied
	}
	for id, b := range t.updated {
		copied := *b
		t.store.bookings[id] = &copied
	}
	return nil
}

func (t *memTx) unwindTransfers(ctx context.Context, applied int) {
	for i := applied - 1; i >= 0; i-- {
		tr := t.transfers[i]
		_ = t.store.accounts.AdjustCredits(ctx, tr.to, -tr.amount)
		_ = t.store.accounts.AdjustCredits(ctx, tr.from, tr.amount)
	}
}

// GetBooking fetches a committed booking.
func (s *InMemoryStore) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

// ListActive returns the practitioner's PENDING and CONFIRMED bookings.
func (s *InMemoryStore) ListActive(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Booking
	for _, b := range s.bookings {
		if b.PractitionerID == practitionerID && b.Status.Active() {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortByStart(out)
	return out, nil
}

// ListByClient returns the client's bookings, newest first.
func (s *InMemoryStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Booking
	for _, b := range s.bookings {
		if b.ClientID == clientID {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

// ListByPractitioner returns every booking for the practitioner regardless of
// status, ordered by start time.
func (s *InMemoryStore) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Booking
	for _, b := range s.bookings {
		if b.PractitionerID == practitionerID {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortByStart(out)
	return out, nil
}

// ListUpcomingByPractitioner returns CONFIRMED bookings ending after from,
// ordered by start time.
func (s *InMemoryStore) ListUpcomingByPractitioner(ctx context.Context, practitionerID uuid.UUID, from time.Time) ([]*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Booking
	for _, b := range s.bookings {
		if b.PractitionerID == practitionerID && b.Status == StatusConfirmed && b.EndTime.After(from) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(bookings []*Booking) {
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].StartTime.Before(bookings[j].StartTime) })
}
