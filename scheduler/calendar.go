package scheduler

import (
	"context"

	"github.com/nandovz/airsched/scheduler/storage"
)

// ActivateCalendar makes one calendar current. The store flags it and clears
// every other calendar's flag atomically, so at most one calendar is ever
// active.
func (s *Scheduler) ActivateCalendar(ctx context.Context, id string) error {
	if err := s.store.SetActiveCalendar(ctx, id); err != nil {
		return err
	}
	s.log.Info("calendar activated", "calendar", id)
	return nil
}

// CurrentCalendar returns the active calendar.
func (s *Scheduler) CurrentCalendar(ctx context.Context) (*storage.Calendar, error) {
	return s.store.ActiveCalendar(ctx)
}
