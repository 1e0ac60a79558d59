package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/ledger"
	"github.com/medimeet/telehealth-platform/internal/scheduling"
)

// MemoryRepository derives stats from the in-memory stores in dev mode.
type MemoryRepository struct {
	store  *scheduling.InMemoryStore
	ledger *ledger.InMemoryRepository
	now    func() time.Time
}

// NewMemoryRepository creates a repository over the in-memory stores.
func NewMemoryRepository(store *scheduling.InMemoryStore, lr *ledger.InMemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		store:  store,
		ledger: lr,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Stats mirrors the SQL aggregates over the in-memory state.
func (r *MemoryRepository) Stats(ctx context.Context, practitionerID uuid.UUID) (*Stats, error) {
	var s Stats
	now := r.now()

	all, err := r.store.ListByPractitioner(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	for _, b := range all {
		switch {
		case b.Status == scheduling.StatusConfirmed && b.EndTime.After(now):
			s.UpcomingBookings++
		case b.Status == scheduling.StatusCompleted:
			s.CompletedSessions++
		case b.Status == scheduling.StatusCancelled:
			s.CancelledBookings++
		}
	}

	txs, err := r.ledger.ListByAccount(ctx, practitionerID, 0)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if tx.Kind == ledger.KindBookingCredit || tx.Kind == ledger.KindCancellationReversal {
			s.CreditsEarned += tx.Amount
		}
	}
	return &s, nil
}
