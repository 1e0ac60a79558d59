package availability

import "errors"

var (
	// ErrInvalidRange indicates dailyStart does not precede dailyEnd, or a
	// time of day failed to parse.
	ErrInvalidRange = errors.New("availability: daily start must precede daily end")

	// ErrNoActiveWindow indicates the practitioner has not published a window.
	ErrNoActiveWindow = errors.New("availability: no active window")
)
