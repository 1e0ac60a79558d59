package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WindowStatus tracks whether a window is the practitioner's current one.
type WindowStatus string

const (
	WindowActive     WindowStatus = "ACTIVE"
	WindowSuperseded WindowStatus = "SUPERSEDED"
)

// TimeOfDay is an offset from midnight UTC. It marshals as "HH:MM".
type TimeOfDay time.Duration

// ParseTimeOfDay parses "HH:MM" into an offset from midnight.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidRange, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidRange, s)
	}
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
}

// Duration returns the offset as a time.Duration.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

// Minutes returns the offset in whole minutes, the storage representation.
func (t TimeOfDay) Minutes() int {
	return int(time.Duration(t) / time.Minute)
}

// FromMinutes converts the storage representation back into a TimeOfDay.
func FromMinutes(m int) TimeOfDay {
	return TimeOfDay(time.Duration(m) * time.Minute)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// MarshalJSON renders the offset as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: time of day must be a string", ErrInvalidRange)
	}
	parsed, err := ParseTimeOfDay(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Window is a recurring daily availability window. A practitioner has at most
// one ACTIVE window; setting a new one supersedes the previous.
type Window struct {
	ID             uuid.UUID    `json:"id"`
	PractitionerID uuid.UUID    `json:"practitioner_id"`
	DailyStart     TimeOfDay    `json:"daily_start"`
	DailyEnd       TimeOfDay    `json:"daily_end"`
	Status         WindowStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
}
