package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/nandovz/airsched/scheduler/recurrence"
)

// Transmission is one concrete airing: a schedule plus the instant it goes
// on air. Transmissions are produced on demand and never stored.
type Transmission struct {
	Schedule *Schedule
	Start    time.Time
}

// End is when the transmission goes off air.
func (t Transmission) End() time.Time {
	return t.Start.Add(t.Schedule.Runtime())
}

// ProgrammeName returns the airing programme's name.
func (t Transmission) ProgrammeName() string {
	return t.Schedule.Programme.Name
}

// Slug returns the airing programme's URL slug.
func (t Transmission) Slug() string {
	return t.Schedule.Programme.Slug
}

// TransmissionSeq is a lazy, ascending, single-pass stream of transmissions.
type TransmissionSeq func() (Transmission, bool)

// TransmissionsAt returns every transmission on air at the given instant.
// Overlapping schedules all match; there is no implicit priority.
func (s *Scheduler) TransmissionsAt(ctx context.Context, at time.Time) ([]Transmission, error) {
	records, err := s.store.SchedulesCovering(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules covering instant: %w", err)
	}
	var out []Transmission
	for _, rec := range records {
		sch, err := s.materialize(ctx, rec)
		if err != nil {
			return nil, err
		}
		result, err := sch.LastBefore(at, true)
		if err != nil {
			return nil, err
		}
		start, ok := result.Get()
		if !ok {
			continue
		}
		if at.Before(start.Add(sch.Runtime())) {
			out = append(out, Transmission{Schedule: sch, Start: start})
		}
	}
	return out, nil
}

// TransmissionsBetween merges the occurrence streams of the given schedules
// into one globally time-ordered transmission stream over [after, before].
// Without explicit schedules it covers the active calendar. Equal instants
// are ordered by schedule list position. The result is single-pass, and each
// underlying stream is consumed exactly once.
func (s *Scheduler) TransmissionsBetween(ctx context.Context, after, before time.Time, schedules ...*Schedule) (TransmissionSeq, error) {
	if len(schedules) == 0 {
		records, err := s.store.ActiveSchedules(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active schedules: %w", err)
		}
		for _, rec := range records {
			sch, err := s.materialize(ctx, rec)
			if err != nil {
				return nil, err
			}
			schedules = append(schedules, sch)
		}
	}

	h := make(transmissionHeap, 0, len(schedules))
	for idx, sch := range schedules {
		seq, err := sch.OccurrencesBetween(after, before)
		if err != nil {
			return nil, err
		}
		if t, ok := seq(); ok {
			h = append(h, mergeEntry{at: t, order: idx, schedule: sch, next: seq})
		}
	}
	heap.Init(&h)

	return func() (Transmission, bool) {
		if h.Len() == 0 {
			return Transmission{}, false
		}
		entry := h[0]
		if t, ok := entry.next(); ok {
			h[0] = mergeEntry{at: t, order: entry.order, schedule: entry.schedule, next: entry.next}
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
		return Transmission{Schedule: entry.schedule, Start: entry.at}, true
	}, nil
}

// mergeEntry is one schedule's head position in the k-way merge.
type mergeEntry struct {
	at       time.Time
	order    int
	schedule *Schedule
	next     recurrence.Seq
}

type transmissionHeap []mergeEntry

func (h transmissionHeap) Len() int { return len(h) }

func (h transmissionHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].order < h[j].order
}

func (h transmissionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *transmissionHeap) Push(x any) { *h = append(*h, x.(mergeEntry)) }

func (h *transmissionHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
