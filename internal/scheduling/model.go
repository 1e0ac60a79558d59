package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the booking lifecycle state. CANCELLED and COMPLETED are
// terminal.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// Active reports whether the booking still holds its slot. Only active
// bookings participate in overlap checks.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is one reserved slot. For a given practitioner no two active
// bookings may hold overlapping [StartTime, EndTime) intervals.
type Booking struct {
	ID             uuid.UUID     `json:"id"`
	ClientID       uuid.UUID     `json:"client_id"`
	PractitionerID uuid.UUID     `json:"practitioner_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Status         BookingStatus `json:"status"`
	Description    string        `json:"description,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	SessionToken   string        `json:"session_token,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Slot is a bookable half-open interval [Start, End).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// DaySchedule groups a day's bookable slots. Days with no openings are still
// listed with an empty slot set.
type DaySchedule struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Slots []Slot `json:"slots"`
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect: a < d && c < b. Back-to-back slots sharing a
// boundary instant do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
