package storage

import (
	"errors"
	"fmt"
	"time"
)

// Error types
type ErrorType string

const (
	ErrNotFound             ErrorType = "not_found"
	ErrAlreadyExists        ErrorType = "already_exists"
	ErrInvalidInput         ErrorType = "invalid_input"
	ErrConfigurationMissing ErrorType = "configuration_missing"
)

// Error represents a storage-related error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a storage not-found error.
func IsNotFound(err error) bool {
	return isType(err, ErrNotFound)
}

// IsInvalidInput reports whether err is a storage invalid-input error.
func IsInvalidInput(err error) bool {
	return isType(err, ErrInvalidInput)
}

// IsConfigurationMissing reports whether err is a configuration-missing
// error.
func IsConfigurationMissing(err error) bool {
	return isType(err, ErrConfigurationMissing)
}

func isType(err error, t ErrorType) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == t
}

// EmissionType tells how a schedule goes on air.
type EmissionType string

const (
	EmissionLive        EmissionType = "L"
	EmissionBroadcast   EmissionType = "B"
	EmissionSyndication EmissionType = "S"
)

// Priority orders emission types for slot conflicts: live beats broadcast
// beats syndication.
func (t EmissionType) Priority() int {
	switch t {
	case EmissionLive:
		return 2
	case EmissionBroadcast:
		return 1
	default:
		return 0
	}
}

// Programme is a station show. Its optional validity window bounds every
// schedule it owns.
type Programme struct {
	ID       string        `db:"id"`
	Name     string        `db:"name"`
	Slug     string        `db:"slug"`
	Synopsis string        `db:"synopsis"`
	Language string        `db:"language"`
	Category string        `db:"category"`
	Runtime  time.Duration `db:"runtime"`

	// Validity window. Nil means open-ended on that side.
	StartDT *time.Time `db:"start_dt"`
	EndDT   *time.Time `db:"end_dt"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Calendar is a named scheduling period grouping schedules. At most one
// calendar is active at a time. Its optional window further constrains the
// effective windows of its schedules.
type Calendar struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Active bool   `db:"active"`

	StartDate *time.Time `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
}

// Schedule is the recurrence-bearing record. Recurrence holds the RFC 5545
// property block; EffectiveStartDT/EffectiveEndDT are derived bounds cached
// for query performance and recomputed on every save.
type Schedule struct {
	ID          string       `db:"id"`
	ProgrammeID string       `db:"programme_id"`
	CalendarID  string       `db:"calendar_id"`
	Type        EmissionType `db:"type"`

	StartDT    time.Time `db:"start_dt"`
	EndDT      time.Time `db:"end_dt"`
	Recurrence string    `db:"recurrence"`

	EffectiveStartDT *time.Time `db:"effective_start_dt"`
	EffectiveEndDT   *time.Time `db:"effective_end_dt"`

	// FromCollectionID points at the schedule this one was split from when a
	// single occurrence was edited out of a recurring collection. SourceID
	// names the live schedule a broadcast rebroadcasts.
	FromCollectionID *string `db:"from_collection_id"`
	SourceID         *string `db:"source_id"`

	CreatedAt time.Time `db:"created_at"`
}

// ExcludedDate is the durable shadow of one excluded instant embedded in a
// schedule's recurrence text. The rule text is not queryable by date; these
// rows are.
type ExcludedDate struct {
	ID         string    `db:"id"`
	ScheduleID string    `db:"schedule_id"`
	At         time.Time `db:"at"`
}

// Episode is the station's record of planned content for one occurrence.
type Episode struct {
	ID             string     `db:"id"`
	ProgrammeID    string     `db:"programme_id"`
	Title          string     `db:"title"`
	Season         int        `db:"season"`
	NumberInSeason int        `db:"number_in_season"`
	IssueDate      *time.Time `db:"issue_date"`
	CreatedAt      time.Time  `db:"created_at"`
}
