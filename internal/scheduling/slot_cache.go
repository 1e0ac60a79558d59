package scheduling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlotCache keeps rendered slot listings in Redis for a short TTL. Listings
// are advisory reads; a stale hit is harmless because the reservation
// transaction re-checks overlap before commit. A nil *SlotCache disables
// caching entirely.
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlotCache creates a cache with the given TTL.
func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SlotCache{client: client, ttl: ttl}
}

func slotKey(practitionerID uuid.UUID) string {
	return "slots:" + practitionerID.String()
}

// Get returns the cached listing, or ok=false on miss or any Redis error.
func (c *SlotCache) Get(ctx context.Context, practitionerID uuid.UUID) ([]DaySchedule, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, slotKey(practitionerID)).Bytes()
	if err != nil {
		return nil, false
	}
	var days []DaySchedule
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, false
	}
	return days, true
}

// Set stores the listing. Errors are ignored; the cache is best-effort.
func (c *SlotCache) Set(ctx context.Context, practitionerID uuid.UUID, days []DaySchedule) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return
	}
	c.client.Set(ctx, slotKey(practitionerID), raw, c.ttl)
}

// Invalidate drops the practitioner's cached listing after a booking change.
func (c *SlotCache) Invalidate(ctx context.Context, practitionerID uuid.UUID) {
	if c == nil {
		return
	}
	c.client.Del(ctx, slotKey(practitionerID))
}
