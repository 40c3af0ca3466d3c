// Package postgres provides the durable storage.Storage backend.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nandovz/airsched/scheduler/storage"
)

//go:embed schema.sql
var schema string

// Store implements storage.Storage on PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.Storage = (*Store)(nil)

// Open connects to PostgreSQL and returns a Store.
func Open(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func wrapGet(what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &storage.Error{Type: storage.ErrNotFound, Message: what + " " + id + " not found"}
	}
	return fmt.Errorf("failed to get %s %s: %w", what, id, err)
}

func (s *Store) CreateProgramme(ctx context.Context, p *storage.Programme) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO programmes (id, name, slug, synopsis, language, category, runtime, start_dt, end_dt, created_at, updated_at)
		VALUES (:id, :name, :slug, :synopsis, :language, :category, :runtime, :start_dt, :end_dt, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("failed to create programme: %w", err)
	}
	return nil
}

func (s *Store) GetProgramme(ctx context.Context, id string) (*storage.Programme, error) {
	var p storage.Programme
	if err := s.db.GetContext(ctx, &p, `SELECT * FROM programmes WHERE id = $1`, id); err != nil {
		return nil, wrapGet("programme", id, err)
	}
	return &p, nil
}

func (s *Store) GetProgrammeBySlug(ctx context.Context, slug string) (*storage.Programme, error) {
	var p storage.Programme
	if err := s.db.GetContext(ctx, &p, `SELECT * FROM programmes WHERE slug = $1`, slug); err != nil {
		return nil, wrapGet("programme", slug, err)
	}
	return &p, nil
}

func (s *Store) UpdateProgramme(ctx context.Context, p *storage.Programme) error {
	p.UpdatedAt = time.Now()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE programmes SET name = :name, slug = :slug, synopsis = :synopsis, language = :language,
			category = :category, runtime = :runtime, start_dt = :start_dt, end_dt = :end_dt, updated_at = :updated_at
		WHERE id = :id`, p)
	if err != nil {
		return fmt.Errorf("failed to update programme: %w", err)
	}
	return requireRow(res, "programme", p.ID)
}

func (s *Store) DeleteProgramme(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM programmes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete programme: %w", err)
	}
	return requireRow(res, "programme", id)
}

func (s *Store) CreateCalendar(ctx context.Context, c *storage.Calendar) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if c.Active {
		if _, err := tx.ExecContext(ctx, `UPDATE calendars SET active = FALSE WHERE active`); err != nil {
			return fmt.Errorf("failed to clear active calendars: %w", err)
		}
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO calendars (id, name, active, start_date, end_date)
		VALUES (:id, :name, :active, :start_date, :end_date)`, c); err != nil {
		return fmt.Errorf("failed to create calendar: %w", err)
	}
	return tx.Commit()
}

func (s *Store) GetCalendar(ctx context.Context, id string) (*storage.Calendar, error) {
	var c storage.Calendar
	if err := s.db.GetContext(ctx, &c, `SELECT * FROM calendars WHERE id = $1`, id); err != nil {
		return nil, wrapGet("calendar", id, err)
	}
	return &c, nil
}

func (s *Store) ActiveCalendar(ctx context.Context) (*storage.Calendar, error) {
	var c storage.Calendar
	if err := s.db.GetContext(ctx, &c, `SELECT * FROM calendars WHERE active LIMIT 1`); err != nil {
		return nil, wrapGet("calendar", "active", err)
	}
	return &c, nil
}

// SetActiveCalendar clears every active flag and sets the target inside one
// transaction.
func (s *Store) SetActiveCalendar(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `UPDATE calendars SET active = FALSE WHERE active`); err != nil {
		return fmt.Errorf("failed to clear active calendars: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE calendars SET active = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to activate calendar: %w", err)
	}
	if err := requireRow(res, "calendar", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) UpdateCalendar(ctx context.Context, c *storage.Calendar) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE calendars SET name = :name, start_date = :start_date, end_date = :end_date
		WHERE id = :id`, c)
	if err != nil {
		return fmt.Errorf("failed to update calendar: %w", err)
	}
	return requireRow(res, "calendar", c.ID)
}

func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}
	return requireRow(res, "calendar", id)
}

// SaveSchedule upserts the schedule and rewrites its excluded-date rows in
// one transaction.
func (s *Store) SaveSchedule(ctx context.Context, sch *storage.Schedule, excluded []storage.ExcludedDate) error {
	if sch.ID == "" {
		sch.ID = uuid.NewString()
	}
	if sch.CreatedAt.IsZero() {
		sch.CreatedAt = time.Now()
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO schedules (id, programme_id, calendar_id, type, start_dt, end_dt, recurrence,
			effective_start_dt, effective_end_dt, from_collection_id, source_id, created_at)
		VALUES (:id, :programme_id, :calendar_id, :type, :start_dt, :end_dt, :recurrence,
			:effective_start_dt, :effective_end_dt, :from_collection_id, :source_id, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			programme_id = EXCLUDED.programme_id, calendar_id = EXCLUDED.calendar_id,
			type = EXCLUDED.type, start_dt = EXCLUDED.start_dt, end_dt = EXCLUDED.end_dt,
			recurrence = EXCLUDED.recurrence, effective_start_dt = EXCLUDED.effective_start_dt,
			effective_end_dt = EXCLUDED.effective_end_dt, from_collection_id = EXCLUDED.from_collection_id,
			source_id = EXCLUDED.source_id`, sch); err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM excluded_dates WHERE schedule_id = $1`, sch.ID); err != nil {
		return fmt.Errorf("failed to clear excluded dates: %w", err)
	}
	for i := range excluded {
		row := excluded[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.ScheduleID = sch.ID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO excluded_dates (id, schedule_id, at) VALUES (:id, :schedule_id, :at)`, row); err != nil {
			return fmt.Errorf("failed to insert excluded date: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetSchedule(ctx context.Context, id string) (*storage.Schedule, error) {
	var sch storage.Schedule
	if err := s.db.GetContext(ctx, &sch, `SELECT * FROM schedules WHERE id = $1`, id); err != nil {
		return nil, wrapGet("schedule", id, err)
	}
	return &sch, nil
}

func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return requireRow(res, "schedule", id)
}

func (s *Store) SchedulesByCalendar(ctx context.Context, calendarID string) ([]storage.Schedule, error) {
	var out []storage.Schedule
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM schedules WHERE calendar_id = $1 ORDER BY created_at, id`, calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules by calendar: %w", err)
	}
	return out, nil
}

func (s *Store) SchedulesByProgramme(ctx context.Context, programmeID string) ([]storage.Schedule, error) {
	var out []storage.Schedule
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM schedules WHERE programme_id = $1 ORDER BY created_at, id`, programmeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules by programme: %w", err)
	}
	return out, nil
}

func (s *Store) ActiveSchedules(ctx context.Context) ([]storage.Schedule, error) {
	var out []storage.Schedule
	err := s.db.SelectContext(ctx, &out, `
		SELECT s.* FROM schedules s JOIN calendars c ON c.id = s.calendar_id
		WHERE c.active ORDER BY s.created_at, s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active schedules: %w", err)
	}
	return out, nil
}

func (s *Store) SchedulesCovering(ctx context.Context, at time.Time) ([]storage.Schedule, error) {
	var out []storage.Schedule
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM schedules
		WHERE effective_start_dt IS NOT NULL AND effective_start_dt <= $1
		  AND (effective_end_dt IS NULL OR effective_end_dt > $1)
		ORDER BY created_at, id`, at)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules covering instant: %w", err)
	}
	return out, nil
}

func (s *Store) ExcludedDatesBySchedule(ctx context.Context, scheduleID string) ([]storage.ExcludedDate, error) {
	var out []storage.ExcludedDate
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM excluded_dates WHERE schedule_id = $1 ORDER BY at`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list excluded dates: %w", err)
	}
	return out, nil
}

func (s *Store) ExcludedDateAt(ctx context.Context, programmeID string, at time.Time) (*storage.ExcludedDate, error) {
	var row storage.ExcludedDate
	err := s.db.GetContext(ctx, &row, `
		SELECT e.* FROM excluded_dates e JOIN schedules s ON s.id = e.schedule_id
		WHERE s.programme_id = $1 AND e.at = $2`, programmeID, at)
	if err != nil {
		return nil, wrapGet("excluded date", at.String(), err)
	}
	return &row, nil
}

func (s *Store) CreateEpisode(ctx context.Context, e *storage.Episode) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO episodes (id, programme_id, title, season, number_in_season, issue_date, created_at)
		VALUES (:id, :programme_id, :title, :season, :number_in_season, :issue_date, :created_at)`, e)
	if err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}
	return nil
}

func (s *Store) EpisodesByProgramme(ctx context.Context, programmeID string) ([]storage.Episode, error) {
	var out []storage.Episode
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM episodes WHERE programme_id = $1 ORDER BY season, number_in_season`, programmeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateEpisode(ctx context.Context, e *storage.Episode) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE episodes SET title = :title, season = :season, number_in_season = :number_in_season,
			issue_date = :issue_date
		WHERE id = :id`, e)
	if err != nil {
		return fmt.Errorf("failed to update episode: %w", err)
	}
	return requireRow(res, "episode", e.ID)
}

func requireRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return &storage.Error{Type: storage.ErrNotFound, Message: what + " " + id + " not found"}
	}
	return nil
}
