package scheduler

import (
	"time"

	"github.com/nandovz/airsched/scheduler/storage"
)

// effectiveWindow derives the cached bounds within which a schedule can
// produce occurrences, folding in the programme's validity window and the
// owning calendar's period. Occurrence queries are expensive to run from
// open ends; these bounds let the aggregate reject out-of-range windows in
// O(1) and let the transmission merger skip non-overlapping schedules.
func (s *Scheduler) effectiveWindow(sch *Schedule) (start, end *time.Time, err error) {
	lower := laterOf(sch.Programme.StartDT, sch.Calendar.StartDate)
	upper := earlierOf(sch.Programme.EndDT, s.calendarCeiling(sch.Calendar))

	start, err = s.effectiveStart(sch, lower, upper)
	if err != nil {
		return nil, nil, err
	}
	end, err = s.effectiveEnd(sch, lower, upper)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// effectiveStart finds the first instant this schedule can air.
func (s *Scheduler) effectiveStart(sch *Schedule, lower, upper *time.Time) (*time.Time, error) {
	// Without a repeat component the single occurrence either satisfies the
	// start constraint or falls outside the validity window entirely.
	if !sch.Ruleset.HasRules() {
		if lower == nil || !lower.After(sch.StartDT) {
			first := sch.StartDT
			return &first, nil
		}
		return nil, nil
	}

	after := sch.StartDT
	if lower != nil && lower.After(after) {
		after = *lower
	}
	result, err := s.engine.After(sch.Ruleset, after, true)
	if err != nil {
		return nil, err
	}
	first, ok := result.Get()
	if !ok {
		return nil, nil
	}
	if upper != nil && upper.Before(first) {
		return nil, nil
	}
	return &first, nil
}

// effectiveEnd finds the last instant this schedule can stop airing, or nil
// when the recurrence is open-ended.
func (s *Scheduler) effectiveEnd(sch *Schedule, lower, upper *time.Time) (*time.Time, error) {
	runtime := sch.Runtime()

	if !sch.Ruleset.HasRules() {
		if upper == nil || !upper.Before(sch.StartDT) {
			end := sch.StartDT.Add(runtime)
			return &end, nil
		}
		return nil, nil
	}

	if upper != nil {
		result, err := s.engine.Before(sch.Ruleset, *upper, true)
		if err != nil {
			return nil, err
		}
		last, ok := result.Get()
		if !ok {
			return nil, nil
		}
		if lower != nil && lower.After(last) {
			return nil, nil
		}
		end := last.Add(runtime)
		return &end, nil
	}

	// No end constraint: the last occurrence is only knowable when every
	// repeat rule carries an UNTIL bound. The ceiling is the biggest
	// possible start; it may itself be excluded, so probe backwards from it.
	untils, bounded := sch.Ruleset.Untils()
	if !bounded {
		return nil, nil
	}
	ceiling := time.Time{}
	for _, u := range untils {
		if u.After(ceiling) {
			ceiling = u
		}
	}
	for _, rd := range sch.Ruleset.RDates() {
		if rd.After(ceiling) {
			ceiling = rd
		}
	}
	if ceiling.IsZero() {
		return nil, nil
	}
	result, err := s.engine.Before(sch.Ruleset, ceiling.In(s.tz.Location()), true)
	if err != nil {
		return nil, err
	}
	last, ok := result.Get()
	if !ok {
		return nil, nil
	}
	if lower != nil && lower.After(last) {
		return nil, nil
	}
	end := last.Add(runtime)
	return &end, nil
}

// calendarCeiling converts a calendar's end date into an inclusive instant:
// a period that ends on day D covers all of D.
func (s *Scheduler) calendarCeiling(cal *storage.Calendar) *time.Time {
	if cal == nil || cal.EndDate == nil {
		return nil
	}
	end := s.tz.EndOfDay(*cal.EndDate)
	return &end
}

func laterOf(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.After(*b) {
		return a
	}
	return b
}

func earlierOf(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Before(*b) {
		return a
	}
	return b
}
