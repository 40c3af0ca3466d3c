package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/nandovz/airsched/scheduler/storage"
)

// RearrangeEpisodes walks forward from pivot assigning upcoming occurrence
// instants of a programme's schedules to its episode records in strict
// chronological order. Episodes already issued before the pivot keep their
// dates. When two schedules collide on the same instant the slot is filled
// once; the higher-priority emission type wins it, newest schedule on a
// further tie.
func (s *Scheduler) RearrangeEpisodes(ctx context.Context, programmeID string, pivot time.Time) error {
	episodes, err := s.store.EpisodesByProgramme(ctx, programmeID)
	if err != nil {
		return fmt.Errorf("failed to list episodes: %w", err)
	}
	var pending []storage.Episode
	for _, ep := range episodes {
		if ep.IssueDate == nil || !ep.IssueDate.Before(pivot) {
			pending = append(pending, ep)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	records, err := s.store.SchedulesByProgramme(ctx, programmeID)
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}
	walkers := make([]*occurrenceWalker, 0, len(records))
	for _, rec := range records {
		sch, err := s.materialize(ctx, rec)
		if err != nil {
			return err
		}
		w := &occurrenceWalker{schedule: sch}
		if err := w.advance(pivot, true); err != nil {
			return err
		}
		if w.valid {
			walkers = append(walkers, w)
		}
	}

	for i := range pending {
		winner := pickSlot(walkers)
		if winner == nil {
			s.log.Debug("ran out of occurrences while rearranging",
				"programme", programmeID, "unassigned", len(pending)-i)
			break
		}
		instant := winner.current
		s.log.Debug("episode slot assigned",
			"programme", programmeID,
			"schedule", winner.schedule.ID,
			"issue_date", instant)

		// Consume the instant from every colliding walker so a slot is
		// filled exactly once.
		live := walkers[:0]
		for _, w := range walkers {
			if w.current.Equal(instant) {
				if err := w.advance(instant, false); err != nil {
					return err
				}
			}
			if w.valid {
				live = append(live, w)
			}
		}
		walkers = live

		ep := pending[i]
		if ep.IssueDate != nil && ep.IssueDate.Equal(instant) {
			continue
		}
		issue := instant
		ep.IssueDate = &issue
		if err := s.store.UpdateEpisode(ctx, &ep); err != nil {
			return fmt.Errorf("failed to update episode %s: %w", ep.ID, err)
		}
	}
	return nil
}

// occurrenceWalker lazily walks one schedule's occurrences forward.
type occurrenceWalker struct {
	schedule *Schedule
	current  time.Time
	valid    bool
}

func (w *occurrenceWalker) advance(from time.Time, inclusive bool) error {
	result, err := w.schedule.FirstAfter(from, inclusive)
	if err != nil {
		return err
	}
	w.current, w.valid = result.Get()
	return nil
}

// pickSlot chooses the walker holding the earliest instant; among equal
// instants the higher-priority emission type wins, then the newest schedule.
func pickSlot(walkers []*occurrenceWalker) *occurrenceWalker {
	var best *occurrenceWalker
	for _, w := range walkers {
		if !w.valid {
			continue
		}
		if best == nil || w.current.Before(best.current) {
			best = w
			continue
		}
		if !w.current.Equal(best.current) {
			continue
		}
		wp, bp := w.schedule.Type.Priority(), best.schedule.Type.Priority()
		if wp > bp || (wp == bp && w.schedule.CreatedAt.After(best.schedule.CreatedAt)) {
			best = w
		}
	}
	return best
}
