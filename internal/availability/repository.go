package availability

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists availability windows.
type Repository interface {
	// SetWindow supersedes the practitioner's ACTIVE window (if any) and
	// stores the new one as ACTIVE. Existing bookings are never touched.
	SetWindow(ctx context.Context, practitionerID uuid.UUID, start, end TimeOfDay) (*Window, error)
	// GetActive returns the practitioner's ACTIVE window, or ErrNoActiveWindow.
	GetActive(ctx context.Context, practitionerID uuid.UUID) (*Window, error)
	// ListByPractitioner returns all of the practitioner's windows, newest first.
	ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*Window, error)
}

// InMemoryRepository is the map-backed store used in tests and dev mode.
type InMemoryRepository struct {
	mu      sync.RWMutex
	windows map[uuid.UUID][]*Window
}

// NewInMemoryRepository creates an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{windows: make(map[uuid.UUID][]*Window)}
}

// SetWindow supersedes the prior ACTIVE window and appends the new one.
func (r *InMemoryRepository) SetWindow(ctx context.Context, practitionerID uuid.UUID, start, end TimeOfDay) (*Window, error) {
	if start >= end {
		return nil, fmt.Errorf("%w: %s >= %s", ErrInvalidRange, start, end)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range r.windows[practitionerID] {
		if w.Status == WindowActive {
			w.Status = WindowSuperseded
		}
	}

	window := &Window{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		DailyStart:     start,
		DailyEnd:       end,
		Status:         WindowActive,
		CreatedAt:      time.Now().UTC(),
	}
	r.windows[practitionerID] = append(r.windows[practitionerID], window)

	copied := *window
	return &copied, nil
}

// GetActive returns the practitioner's ACTIVE window.
func (r *InMemoryRepository) GetActive(ctx context.Context, practitionerID uuid.UUID) (*Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.windows[practitionerID] {
		if w.Status == WindowActive {
			copied := *w
			return &copied, nil
		}
	}
	return nil, ErrNoActiveWindow
}

// ListByPractitioner returns all windows, newest first.
func (r *InMemoryRepository) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Window, 0, len(r.windows[practitionerID]))
	for _, w := range r.windows[practitionerID] {
		copied := *w
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
