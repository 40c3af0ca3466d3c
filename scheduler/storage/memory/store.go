// memory based implementation for testing and small deployments
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nandovz/airsched/scheduler/storage"
)

// Store implements storage.Storage using in-memory maps.
type Store struct {
	mu         sync.RWMutex
	programmes map[string]*storage.Programme
	calendars  map[string]*storage.Calendar
	schedules  map[string]*storage.Schedule
	excluded   map[string][]storage.ExcludedDate // key: scheduleID
	episodes   map[string]*storage.Episode
}

var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory storage.
func New() *Store {
	return &Store{
		programmes: make(map[string]*storage.Programme),
		calendars:  make(map[string]*storage.Calendar),
		schedules:  make(map[string]*storage.Schedule),
		excluded:   make(map[string][]storage.ExcludedDate),
		episodes:   make(map[string]*storage.Episode),
	}
}

func notFound(what, id string) error {
	return &storage.Error{Type: storage.ErrNotFound, Message: what + " " + id + " not found"}
}

func (s *Store) CreateProgramme(_ context.Context, p *storage.Programme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.programmes[p.ID]; exists {
		return &storage.Error{Type: storage.ErrAlreadyExists, Message: "programme " + p.ID + " already exists"}
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.programmes[p.ID] = &cp
	return nil
}

func (s *Store) GetProgramme(_ context.Context, id string) (*storage.Programme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programmes[id]
	if !ok {
		return nil, notFound("programme", id)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetProgrammeBySlug(_ context.Context, slug string) (*storage.Programme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.programmes {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, notFound("programme", slug)
}

func (s *Store) UpdateProgramme(_ context.Context, p *storage.Programme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programmes[p.ID]; !ok {
		return notFound("programme", p.ID)
	}
	p.UpdatedAt = time.Now()
	cp := *p
	s.programmes[p.ID] = &cp
	return nil
}

func (s *Store) DeleteProgramme(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programmes[id]; !ok {
		return notFound("programme", id)
	}
	delete(s.programmes, id)
	return nil
}

func (s *Store) CreateCalendar(_ context.Context, c *storage.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := s.calendars[c.ID]; exists {
		return &storage.Error{Type: storage.ErrAlreadyExists, Message: "calendar " + c.ID + " already exists"}
	}
	if c.Active {
		for _, other := range s.calendars {
			other.Active = false
		}
	}
	cp := *c
	s.calendars[c.ID] = &cp
	return nil
}

func (s *Store) GetCalendar(_ context.Context, id string) (*storage.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calendars[id]
	if !ok {
		return nil, notFound("calendar", id)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ActiveCalendar(_ context.Context) (*storage.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.calendars {
		if c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, &storage.Error{Type: storage.ErrNotFound, Message: "no active calendar"}
}

// SetActiveCalendar flags one calendar and clears all others under a single
// write lock.
func (s *Store) SetActiveCalendar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.calendars[id]
	if !ok {
		return notFound("calendar", id)
	}
	for _, c := range s.calendars {
		c.Active = false
	}
	target.Active = true
	return nil
}

func (s *Store) UpdateCalendar(_ context.Context, c *storage.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.calendars[c.ID]
	if !ok {
		return notFound("calendar", c.ID)
	}
	cp := *c
	cp.Active = existing.Active
	s.calendars[c.ID] = &cp
	return nil
}

func (s *Store) DeleteCalendar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[id]; !ok {
		return notFound("calendar", id)
	}
	delete(s.calendars, id)
	return nil
}

// SaveSchedule upserts the schedule record and replaces its excluded-date
// rows under one write lock, so readers never observe the record and its
// shadow rows out of step.
func (s *Store) SaveSchedule(_ context.Context, sch *storage.Schedule, excluded []storage.ExcludedDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sch.ID == "" {
		sch.ID = uuid.NewString()
	}
	if existing, ok := s.schedules[sch.ID]; ok {
		sch.CreatedAt = existing.CreatedAt
	} else if sch.CreatedAt.IsZero() {
		sch.CreatedAt = time.Now()
	}
	cp := *sch
	s.schedules[sch.ID] = &cp

	rows := make([]storage.ExcludedDate, 0, len(excluded))
	for _, row := range excluded {
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.ScheduleID = sch.ID
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].At.Before(rows[j].At) })
	s.excluded[sch.ID] = rows
	return nil
}

func (s *Store) GetSchedule(_ context.Context, id string) (*storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sch, ok := s.schedules[id]
	if !ok {
		return nil, notFound("schedule", id)
	}
	cp := *sch
	return &cp, nil
}

func (s *Store) DeleteSchedule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return notFound("schedule", id)
	}
	delete(s.schedules, id)
	delete(s.excluded, id)
	return nil
}

func (s *Store) SchedulesByCalendar(_ context.Context, calendarID string) ([]storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Schedule
	for _, sch := range s.schedules {
		if sch.CalendarID == calendarID {
			out = append(out, *sch)
		}
	}
	sortSchedules(out)
	return out, nil
}

func (s *Store) SchedulesByProgramme(_ context.Context, programmeID string) ([]storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Schedule
	for _, sch := range s.schedules {
		if sch.ProgrammeID == programmeID {
			out = append(out, *sch)
		}
	}
	sortSchedules(out)
	return out, nil
}

func (s *Store) ActiveSchedules(ctx context.Context) ([]storage.Schedule, error) {
	s.mu.RLock()
	var activeID string
	for _, c := range s.calendars {
		if c.Active {
			activeID = c.ID
			break
		}
	}
	s.mu.RUnlock()
	if activeID == "" {
		return nil, nil
	}
	return s.SchedulesByCalendar(ctx, activeID)
}

func (s *Store) SchedulesCovering(_ context.Context, at time.Time) ([]storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Schedule
	for _, sch := range s.schedules {
		if sch.EffectiveStartDT == nil || sch.EffectiveStartDT.After(at) {
			continue
		}
		if sch.EffectiveEndDT != nil && !sch.EffectiveEndDT.After(at) {
			continue
		}
		out = append(out, *sch)
	}
	sortSchedules(out)
	return out, nil
}

func (s *Store) ExcludedDatesBySchedule(_ context.Context, scheduleID string) ([]storage.ExcludedDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.excluded[scheduleID]
	out := make([]storage.ExcludedDate, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) ExcludedDateAt(_ context.Context, programmeID string, at time.Time) (*storage.ExcludedDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for scheduleID, rows := range s.excluded {
		sch, ok := s.schedules[scheduleID]
		if !ok || sch.ProgrammeID != programmeID {
			continue
		}
		for _, row := range rows {
			if row.At.Equal(at) {
				cp := row
				return &cp, nil
			}
		}
	}
	return nil, &storage.Error{Type: storage.ErrNotFound, Message: "no excluded date at " + at.String()}
}

func (s *Store) CreateEpisode(_ context.Context, e *storage.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, exists := s.episodes[e.ID]; exists {
		return &storage.Error{Type: storage.ErrAlreadyExists, Message: "episode " + e.ID + " already exists"}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	cp := *e
	s.episodes[e.ID] = &cp
	return nil
}

func (s *Store) EpisodesByProgramme(_ context.Context, programmeID string) ([]storage.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Episode
	for _, e := range s.episodes {
		if e.ProgrammeID == programmeID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].NumberInSeason < out[j].NumberInSeason
	})
	return out, nil
}

func (s *Store) UpdateEpisode(_ context.Context, e *storage.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.episodes[e.ID]; !ok {
		return notFound("episode", e.ID)
	}
	cp := *e
	s.episodes[e.ID] = &cp
	return nil
}

func sortSchedules(schedules []storage.Schedule) {
	sort.Slice(schedules, func(i, j int) bool {
		if !schedules[i].CreatedAt.Equal(schedules[j].CreatedAt) {
			return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
		}
		return schedules[i].ID < schedules[j].ID
	})
}
