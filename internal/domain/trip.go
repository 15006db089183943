package domain

import (
	"fmt"
	"time"
)

// Trip is a named date window. Debits inside the window get tagged with the
// trip name when they are parsed.
type Trip struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"` // YYYY-MM-DD, inclusive
	End   string `json:"end"`   // YYYY-MM-DD, inclusive through 23:59:59
}

// Window returns the inclusive [start 00:00:00, end 23:59:59.999] bounds.
func (t Trip) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, t.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("trip %q: start: %w", t.Name, err)
	}
	end, err := time.Parse(DateLayout, t.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("trip %q: end: %w", t.Name, err)
	}
	end = end.Add(24*time.Hour - time.Millisecond)
	return start, end, nil
}

// Contains reports whether the calendar date falls inside the trip. The date
// is checked at noon so a day never straddles a window edge.
func (t Trip) Contains(date time.Time) bool {
	start, end, err := t.Window()
	if err != nil {
		return false
	}
	y, m, d := date.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return !noon.Before(start) && !noon.After(end)
}

// Validate checks that the trip is named and start <= end.
func (t Trip) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w trip: name is required", ErrInvalid)
	}
	start, end, err := t.Window()
	if err != nil {
		return fmt.Errorf("%w %v", ErrInvalid, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w trip %q: end %s is before start %s", ErrInvalid, t.Name, t.End, t.Start)
	}
	return nil
}
