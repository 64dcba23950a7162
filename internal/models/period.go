package models

import (
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("end date must be after start date")

// Period is a half-open time window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: start.UTC(), End: end.UTC()}
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || !p.End.After(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Overlaps reports whether two windows share any instant. Touching endpoints
// do not overlap, so back-to-back bookings are allowed.
func (p Period) Overlaps(o Period) bool {
	return p.Start.Before(o.End) && p.End.After(o.Start)
}

func (p Period) Covers(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}
