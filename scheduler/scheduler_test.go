package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nandovz/airsched/scheduler/storage"
	"github.com/nandovz/airsched/scheduler/storage/memory"
)

// fixture wires a scheduler to an in-memory store with a frozen clock.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	sched *Scheduler
}

func newFixture(t *testing.T, loc *time.Location) *fixture {
	t.Helper()
	store := memory.New()
	sched := New(store, Config{
		Location: loc,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(sched.Close)
	sched.now = func() time.Time { return time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC) }
	return &fixture{t: t, ctx: context.Background(), store: store, sched: sched}
}

func (f *fixture) programme(name string, runtime time.Duration) *storage.Programme {
	f.t.Helper()
	p := &storage.Programme{Name: name, Slug: name, Runtime: runtime}
	require.NoError(f.t, f.store.CreateProgramme(f.ctx, p))
	return p
}

func (f *fixture) calendar(name string) *storage.Calendar {
	f.t.Helper()
	c := &storage.Calendar{Name: name}
	require.NoError(f.t, f.store.CreateCalendar(f.ctx, c))
	return c
}

// savedSchedule creates and saves a schedule aggregate in one step.
func (f *fixture) savedSchedule(p *storage.Programme, c *storage.Calendar, typ storage.EmissionType, start time.Time, recurrence string) *Schedule {
	f.t.Helper()
	sch, err := f.sched.NewSchedule(p, c, typ, start, recurrence)
	require.NoError(f.t, err)
	require.NoError(f.t, f.sched.SaveSchedule(f.ctx, sch))
	return sch
}
