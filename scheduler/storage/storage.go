package storage

import (
	"context"
	"time"
)

// Storage connects the scheduling core with a durable backend. Please use
// the error types provided: not-found must be reported as *Error with type
// ErrNotFound so callers can treat soft misses as normal outcomes.
type Storage interface {
	// CreateProgramme stores a new programme. Implementations assign the ID
	// when empty.
	CreateProgramme(ctx context.Context, p *Programme) error
	// GetProgramme retrieves a programme by ID.
	GetProgramme(ctx context.Context, id string) (*Programme, error)
	// GetProgrammeBySlug retrieves a programme by its URL slug.
	GetProgrammeBySlug(ctx context.Context, slug string) (*Programme, error)
	// UpdateProgramme updates an existing programme.
	UpdateProgramme(ctx context.Context, p *Programme) error
	// DeleteProgramme removes a programme.
	DeleteProgramme(ctx context.Context, id string) error

	// CreateCalendar stores a new calendar.
	CreateCalendar(ctx context.Context, c *Calendar) error
	// GetCalendar retrieves a calendar by ID.
	GetCalendar(ctx context.Context, id string) (*Calendar, error)
	// ActiveCalendar returns the currently active calendar.
	ActiveCalendar(ctx context.Context) (*Calendar, error)
	// SetActiveCalendar flags one calendar active and clears all others as a
	// single atomic operation.
	SetActiveCalendar(ctx context.Context, id string) error
	// UpdateCalendar updates an existing calendar. The Active flag must be
	// changed through SetActiveCalendar only.
	UpdateCalendar(ctx context.Context, c *Calendar) error
	// DeleteCalendar removes a calendar.
	DeleteCalendar(ctx context.Context, id string) error

	// SaveSchedule upserts a schedule and replaces its excluded-date rows in
	// one atomic unit, so the derived fields and the shadow rows are never
	// observed partially updated.
	SaveSchedule(ctx context.Context, s *Schedule, excluded []ExcludedDate) error
	// GetSchedule retrieves a schedule by ID.
	GetSchedule(ctx context.Context, id string) (*Schedule, error)
	// DeleteSchedule removes a schedule and its excluded-date rows.
	DeleteSchedule(ctx context.Context, id string) error
	// SchedulesByCalendar lists the schedules of one calendar.
	SchedulesByCalendar(ctx context.Context, calendarID string) ([]Schedule, error)
	// SchedulesByProgramme lists the schedules of one programme.
	SchedulesByProgramme(ctx context.Context, programmeID string) ([]Schedule, error)
	// ActiveSchedules lists the schedules of the active calendar.
	ActiveSchedules(ctx context.Context) ([]Schedule, error)
	// SchedulesCovering lists schedules whose effective window contains at.
	// A nil effective end is treated as unbounded; schedules with no
	// effective start produce no occurrences and are skipped.
	SchedulesCovering(ctx context.Context, at time.Time) ([]Schedule, error)

	// ExcludedDatesBySchedule lists a schedule's excluded instants, ascending.
	ExcludedDatesBySchedule(ctx context.Context, scheduleID string) ([]ExcludedDate, error)
	// ExcludedDateAt finds which schedule of a programme excluded an instant.
	ExcludedDateAt(ctx context.Context, programmeID string, at time.Time) (*ExcludedDate, error)

	// CreateEpisode stores a new episode.
	CreateEpisode(ctx context.Context, e *Episode) error
	// EpisodesByProgramme lists a programme's episodes ordered by season,
	// then number in season.
	EpisodesByProgramme(ctx context.Context, programmeID string) ([]Episode, error)
	// UpdateEpisode updates an existing episode.
	UpdateEpisode(ctx context.Context, e *Episode) error
}
