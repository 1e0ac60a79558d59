package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for the ledger audit trail.
type Repository interface {
	Record(ctx context.Context, tx Transaction) (*Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Transaction, error)
}

// InMemoryRepository keeps the audit trail in memory for tests and dev mode.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []Transaction
}

// NewInMemoryRepository creates a new in-memory ledger.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Record appends a transaction. Entries are immutable once written.
func (r *InMemoryRepository) Record(ctx context.Context, tx Transaction) (*Transaction, error) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	r.entries = append(r.entries, tx)
	r.mu.Unlock()

	return &tx, nil
}

// ListByAccount returns an account's transactions, newest first.
func (r *InMemoryRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Transaction
	for _, tx := range r.entries {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByBooking returns every entry attributable to a booking, in write order.
func (r *InMemoryRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Transaction
	for _, tx := range r.entries {
		if tx.BookingID != nil && *tx.BookingID == bookingID {
			out = append(out, tx)
		}
	}
	return out, nil
}
