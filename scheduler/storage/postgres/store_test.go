package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nandovz/airsched/scheduler/storage"
)

func TestWrapGet(t *testing.T) {
	err := wrapGet("programme", "p1", sql.ErrNoRows)
	assert.True(t, storage.IsNotFound(err))
	assert.Contains(t, err.Error(), "programme p1")

	other := errors.New("connection refused")
	assert.ErrorIs(t, wrapGet("programme", "p1", other), other)
}

func TestSchemaDDL(t *testing.T) {
	for _, table := range []string{"programmes", "calendars", "schedules", "excluded_dates", "episodes"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	// At most one active calendar, enforced in the database too.
	assert.Contains(t, schema, "calendars_single_active")
	assert.Equal(t, 1, strings.Count(schema, "WHERE active"))
}
