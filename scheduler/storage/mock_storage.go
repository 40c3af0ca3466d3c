package storage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStorage implements the Storage interface for testing
type MockStorage struct {
	mock.Mock
}

var _ Storage = (*MockStorage)(nil)

func (m *MockStorage) CreateProgramme(ctx context.Context, p *Programme) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) GetProgramme(ctx context.Context, id string) (*Programme, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Programme), args.Error(1)
}

func (m *MockStorage) GetProgrammeBySlug(ctx context.Context, slug string) (*Programme, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Programme), args.Error(1)
}

func (m *MockStorage) UpdateProgramme(ctx context.Context, p *Programme) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) DeleteProgramme(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) CreateCalendar(ctx context.Context, c *Calendar) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) GetCalendar(ctx context.Context, id string) (*Calendar, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Calendar), args.Error(1)
}

func (m *MockStorage) ActiveCalendar(ctx context.Context) (*Calendar, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Calendar), args.Error(1)
}

func (m *MockStorage) SetActiveCalendar(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) UpdateCalendar(ctx context.Context, c *Calendar) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) DeleteCalendar(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) SaveSchedule(ctx context.Context, s *Schedule, excluded []ExcludedDate) error {
	args := m.Called(ctx, s, excluded)
	return args.Error(0)
}

func (m *MockStorage) GetSchedule(ctx context.Context, id string) (*Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Schedule), args.Error(1)
}

func (m *MockStorage) DeleteSchedule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) SchedulesByCalendar(ctx context.Context, calendarID string) ([]Schedule, error) {
	args := m.Called(ctx, calendarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Schedule), args.Error(1)
}

func (m *MockStorage) SchedulesByProgramme(ctx context.Context, programmeID string) ([]Schedule, error) {
	args := m.Called(ctx, programmeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Schedule), args.Error(1)
}

func (m *MockStorage) ActiveSchedules(ctx context.Context) ([]Schedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Schedule), args.Error(1)
}

func (m *MockStorage) SchedulesCovering(ctx context.Context, at time.Time) ([]Schedule, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Schedule), args.Error(1)
}

func (m *MockStorage) ExcludedDatesBySchedule(ctx context.Context, scheduleID string) ([]ExcludedDate, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ExcludedDate), args.Error(1)
}

func (m *MockStorage) ExcludedDateAt(ctx context.Context, programmeID string, at time.Time) (*ExcludedDate, error) {
	args := m.Called(ctx, programmeID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExcludedDate), args.Error(1)
}

func (m *MockStorage) CreateEpisode(ctx context.Context, e *Episode) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockStorage) EpisodesByProgramme(ctx context.Context, programmeID string) ([]Episode, error) {
	args := m.Called(ctx, programmeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Episode), args.Error(1)
}

func (m *MockStorage) UpdateEpisode(ctx context.Context, e *Episode) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
