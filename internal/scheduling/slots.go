package scheduling

import (
	"time"

	"github.com/medimeet/telehealth-platform/internal/availability"
)

// GenerateSlots expands a practitioner's daily window into bookable slots over
// horizonDays consecutive days starting today (UTC). It is a pure function of
// its inputs: identical inputs yield identical output.
//
// A slot is emitted when its whole [start, start+slotLength) interval fits the
// window — the last slot may end exactly at dailyEnd — and is dropped when its
// start is strictly before now or when it overlaps an active booking under
// half-open semantics. A nil window yields the horizon with every day empty.
func GenerateSlots(window *availability.Window, bookings []*Booking, now time.Time, horizonDays int, slotLength time.Duration) []DaySchedule {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	days := make([]DaySchedule, 0, horizonDays)
	for d := 0; d < horizonDays; d++ {
		day := midnight.AddDate(0, 0, d)
		schedule := DaySchedule{
			Date:  day.Format("2006-01-02"),
			Label: day.Format("Monday, January 2"),
			Slots: []Slot{},
		}
		if window != nil {
			opens := day.Add(window.DailyStart.Duration())
			closes := day.Add(window.DailyEnd.Duration())
			for start := opens; !start.Add(slotLength).After(closes); start = start.Add(slotLength) {
				end := start.Add(slotLength)
				if start.Before(now) {
					continue
				}
				if overlapsActiveBooking(bookings, start, end) {
					continue
				}
				schedule.Slots = append(schedule.Slots, Slot{
					Start: start,
					End:   end,
					Label: start.Format("15:04") + " - " + end.Format("15:04"),
				})
			}
		}
		days = append(days, schedule)
	}
	return days
}

func overlapsActiveBooking(bookings []*Booking, start, end time.Time) bool {
	for _, b := range bookings {
		if !b.Status.Active() {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return true
		}
	}
	return false
}
