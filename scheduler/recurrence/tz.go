package recurrence

import (
	"errors"
	"time"
)

// ErrNaiveTime is returned when an operation receives the zero time.Time,
// which is the closest Go equivalent of a timezone-naive datetime.
var ErrNaiveTime = errors.New("recurrence: instant is not set")

// Normalizer converts instants between the station's default timezone and
// whatever zone a caller works in, and repairs rule-evaluation results that
// carry a stale UTC offset across a DST transition.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer creates a Normalizer for the given station timezone.
// A nil location defaults to UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the station's default timezone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// ToDefault converts t to the station's default timezone.
func (n *Normalizer) ToDefault(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrNaiveTime
	}
	return t.In(n.loc), nil
}

// FixRecurrenceResult re-localizes a raw occurrence instant into loc.
// Rule evaluation happens in default-timezone space and can carry a UTC
// offset that is stale on the other side of a DST boundary; the fix keeps
// the wall-clock date and time as seen in the default zone and resolves the
// correct offset for that slot in loc. Applying it to an already-correct
// instant is a no-op.
func (n *Normalizer) FixRecurrenceResult(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	if loc == nil {
		loc = n.loc
	}
	local := t.In(n.loc)
	year, month, day := local.Date()
	return time.Date(year, month, day, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc)
}

// CombineWithReferenceTime builds an instant on day's wall-clock date
// carrying ref's time-of-day, resolved in the default timezone. Used to keep
// excluded-date entries pinned to their day when a schedule's start time
// changes, even across a DST shift.
func (n *Normalizer) CombineWithReferenceTime(day, ref time.Time) time.Time {
	d := day.In(n.loc)
	r := ref.In(n.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), r.Hour(), r.Minute(), r.Second(), 0, n.loc)
}

// StartOfDay returns midnight of t's wall-clock day in the default timezone.
func (n *Normalizer) StartOfDay(t time.Time) time.Time {
	local := t.In(n.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, n.loc)
}

// EndOfDay returns 23:59:59 of t's wall-clock day in the default timezone.
func (n *Normalizer) EndOfDay(t time.Time) time.Time {
	local := t.In(n.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 0, n.loc)
}

// SameDay reports whether a and b fall on the same wall-clock day in the
// default timezone. Exclusions act at this granularity so that a DST shift
// of an hour cannot detach an exclusion from the occurrence it suppresses.
func (n *Normalizer) SameDay(a, b time.Time) bool {
	al, bl := a.In(n.loc), b.In(n.loc)
	ay, am, ad := al.Date()
	by, bm, bd := bl.Date()
	return ay == by && am == bm && ad == bd
}
