package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/nandovz/airsched/scheduler/recurrence"
	"github.com/nandovz/airsched/scheduler/storage"
)

// Schedule is the aggregate combining a schedule record with its owning
// programme and calendar and the compiled recurrence ruleset. Occurrence
// queries are clamped to the precomputed effective window, so out-of-range
// windows are rejected without touching the rules.
type Schedule struct {
	storage.Schedule

	Programme *storage.Programme
	Calendar  *storage.Calendar
	Ruleset   *recurrence.Ruleset

	engine *recurrence.Engine
	tz     *recurrence.Normalizer
}

// NewSchedule builds an unsaved schedule aggregate. recurrenceText is an
// RFC 5545 property block; empty means a single occurrence at startDT.
func (s *Scheduler) NewSchedule(programme *storage.Programme, calendar *storage.Calendar, typ storage.EmissionType, startDT time.Time, recurrenceText string) (*Schedule, error) {
	if startDT.IsZero() {
		return nil, &storage.Error{Type: storage.ErrConfigurationMissing, Message: "schedule has no start instant"}
	}
	start, err := s.tz.ToDefault(startDT)
	if err != nil {
		return nil, err
	}
	rs, err := s.compileRuleset(start, recurrenceText)
	if err != nil {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "malformed recurrence definition", Err: err}
	}
	return &Schedule{
		Schedule: storage.Schedule{
			ProgrammeID: programme.ID,
			CalendarID:  calendar.ID,
			Type:        typ,
			StartDT:     start,
			Recurrence:  recurrenceText,
		},
		Programme: programme,
		Calendar:  calendar,
		Ruleset:   rs,
		engine:    s.engine,
		tz:        s.tz,
	}, nil
}

// LoadSchedule materializes a schedule aggregate from storage.
func (s *Scheduler) LoadSchedule(ctx context.Context, id string) (*Schedule, error) {
	rec, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.materialize(ctx, *rec)
}

func (s *Scheduler) materialize(ctx context.Context, rec storage.Schedule) (*Schedule, error) {
	programme, err := s.store.GetProgramme(ctx, rec.ProgrammeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owning programme: %w", err)
	}
	calendar, err := s.store.GetCalendar(ctx, rec.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owning calendar: %w", err)
	}
	rs, err := s.compileRuleset(rec.StartDT, rec.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("failed to compile recurrence of schedule %s: %w", rec.ID, err)
	}
	return &Schedule{
		Schedule:  rec,
		Programme: programme,
		Calendar:  calendar,
		Ruleset:   rs,
		engine:    s.engine,
		tz:        s.tz,
	}, nil
}

// Runtime is the duration of one transmission, owned by the programme.
func (sch *Schedule) Runtime() time.Duration {
	return sch.Programme.Runtime
}

// clampWindow intersects [after, before] with the effective window. ok is
// false when the intersection is empty or the schedule can never produce an
// occurrence.
func (sch *Schedule) clampWindow(after, before time.Time) (a, b time.Time, ok bool) {
	if sch.EffectiveStartDT == nil {
		return a, b, false
	}
	a, b = after, before
	if sch.EffectiveStartDT.After(a) {
		a = sch.EffectiveStartDT.In(after.Location())
	}
	if sch.EffectiveEndDT != nil && sch.EffectiveEndDT.Before(b) {
		b = sch.EffectiveEndDT.In(before.Location())
	}
	if a.After(b) {
		return a, b, false
	}
	return a, b, true
}

// OccurrencesBetween produces the schedule's ascending occurrence stream in
// [after, before], clamped to the effective window. The stream is
// single-pass.
func (sch *Schedule) OccurrencesBetween(after, before time.Time) (recurrence.Seq, error) {
	if after.IsZero() || before.IsZero() {
		return nil, recurrence.ErrNaiveTime
	}
	a, b, ok := sch.clampWindow(after, before)
	if !ok {
		return func() (time.Time, bool) { return time.Time{}, false }, nil
	}
	return sch.engine.Between(sch.Ruleset, a, b)
}

// FirstAfter returns the first occurrence at or after t within the
// effective window.
func (sch *Schedule) FirstAfter(t time.Time, inclusive bool) (mo.Option[time.Time], error) {
	if t.IsZero() {
		return mo.None[time.Time](), recurrence.ErrNaiveTime
	}
	if sch.EffectiveStartDT == nil {
		return mo.None[time.Time](), nil
	}
	if sch.EffectiveStartDT.After(t) {
		t, inclusive = sch.EffectiveStartDT.In(t.Location()), true
	}
	result, err := sch.engine.After(sch.Ruleset, t, inclusive)
	if err != nil {
		return mo.None[time.Time](), err
	}
	if occ, ok := result.Get(); ok && sch.EffectiveEndDT != nil && occ.After(*sch.EffectiveEndDT) {
		return mo.None[time.Time](), nil
	}
	return result, nil
}

// LastBefore returns the latest occurrence at or before t within the
// effective window.
func (sch *Schedule) LastBefore(t time.Time, inclusive bool) (mo.Option[time.Time], error) {
	if t.IsZero() {
		return mo.None[time.Time](), recurrence.ErrNaiveTime
	}
	if sch.EffectiveStartDT == nil {
		return mo.None[time.Time](), nil
	}
	if sch.EffectiveEndDT != nil && sch.EffectiveEndDT.Before(t) {
		t, inclusive = sch.EffectiveEndDT.In(t.Location()), true
	}
	result, err := sch.engine.Before(sch.Ruleset, t, inclusive)
	if err != nil {
		return mo.None[time.Time](), err
	}
	if occ, ok := result.Get(); ok && occ.Before(*sch.EffectiveStartDT) {
		return mo.None[time.Time](), nil
	}
	return result, nil
}

// SaveSchedule runs the persistence pipeline: rule bounds are truncated to
// cover their whole last day, excluded-date entries follow the start
// time-of-day, the effective window is rederived, record and shadow rows are
// stored as one atomic unit and the owning programme's episodes are
// rearranged.
func (s *Scheduler) SaveSchedule(ctx context.Context, sch *Schedule) error {
	if sch.StartDT.IsZero() {
		return &storage.Error{Type: storage.ErrConfigurationMissing, Message: "schedule has no start instant"}
	}
	start, err := s.tz.ToDefault(sch.StartDT)
	if err != nil {
		return err
	}
	sch.StartDT = start

	// A start-time edit re-anchors rule phase and moves every excluded
	// instant to the new time-of-day on its original day.
	if sch.ID != "" {
		prev, err := s.store.GetSchedule(ctx, sch.ID)
		if err == nil && !prev.StartDT.Equal(start) {
			moved := make([]time.Time, 0, len(sch.Ruleset.ExDates()))
			for _, ex := range sch.Ruleset.ExDates() {
				moved = append(moved, s.tz.CombineWithReferenceTime(ex, start))
			}
			s.engine.SetExDates(sch.Ruleset, moved)
		} else if err != nil && !storage.IsNotFound(err) {
			return fmt.Errorf("failed to load previous schedule state: %w", err)
		}
	}
	if err := s.engine.SetDTStart(sch.Ruleset, start); err != nil {
		return fmt.Errorf("failed to re-anchor recurrence: %w", err)
	}
	if err := s.engine.TruncateUntils(sch.Ruleset); err != nil {
		return fmt.Errorf("failed to truncate rule bounds: %w", err)
	}

	effStart, effEnd, err := s.effectiveWindow(sch)
	if err != nil {
		return fmt.Errorf("failed to compute effective window: %w", err)
	}
	sch.EffectiveStartDT = effStart
	sch.EffectiveEndDT = effEnd
	sch.EndDT = start.Add(sch.Runtime())
	sch.Recurrence = sch.Ruleset.String()

	// The shadow rows are rebuilt from the embedded exclusion list on every
	// save; the single write below is the only place both representations
	// change.
	rows := make([]storage.ExcludedDate, 0, len(sch.Ruleset.ExDates()))
	for _, ex := range sch.Ruleset.ExDates() {
		rows = append(rows, storage.ExcludedDate{At: ex})
	}
	if err := s.store.SaveSchedule(ctx, &sch.Schedule, rows); err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	s.log.Debug("schedule saved",
		"schedule", sch.ID,
		"programme", sch.ProgrammeID,
		"effective_start", sch.EffectiveStartDT,
		"effective_end", sch.EffectiveEndDT)

	if err := s.RearrangeEpisodes(ctx, sch.ProgrammeID, s.now()); err != nil {
		return fmt.Errorf("failed to rearrange episodes: %w", err)
	}
	return nil
}

// DeleteSchedule removes a schedule and its excluded-date rows.
func (s *Scheduler) DeleteSchedule(ctx context.Context, id string) error {
	return s.store.DeleteSchedule(ctx, id)
}

// ExcludeOccurrence suppresses the occurrence on t's wall-clock day. The
// exclusion entry carries the schedule's start time-of-day so it stays
// aligned with the occurrence it targets.
func (s *Scheduler) ExcludeOccurrence(ctx context.Context, sch *Schedule, t time.Time) error {
	local, err := s.tz.ToDefault(t)
	if err != nil {
		return err
	}
	s.engine.ExcludeDay(sch.Ruleset, s.tz.CombineWithReferenceTime(local, sch.StartDT))
	return s.SaveSchedule(ctx, sch)
}

// IncludeOccurrence restores a previously excluded occurrence day.
func (s *Scheduler) IncludeOccurrence(ctx context.Context, sch *Schedule, t time.Time) error {
	local, err := s.tz.ToDefault(t)
	if err != nil {
		return err
	}
	s.engine.IncludeDay(sch.Ruleset, local)
	return s.SaveSchedule(ctx, sch)
}

// ScheduleWhichExcluded finds which of a programme's schedules excluded the
// given instant. Nil without error when none did.
func (s *Scheduler) ScheduleWhichExcluded(ctx context.Context, programmeID string, t time.Time) (*Schedule, error) {
	row, err := s.store.ExcludedDateAt(ctx, programmeID, t)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.LoadSchedule(ctx, row.ScheduleID)
}
