package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains a Seq into a slice.
func collect(seq Seq) []time.Time {
	var out []time.Time
	for t, ok := seq(); ok; t, ok = seq() {
		out = append(out, t)
	}
	return out
}

func mustRuleset(t *testing.T, e *Engine, dtstart time.Time, text string) *Ruleset {
	t.Helper()
	rs, err := e.ParseRuleset(dtstart, text)
	require.NoError(t, err)
	return rs
}

func TestEngine_Between(t *testing.T) {
	engine := NewEngine(time.UTC)

	tests := []struct {
		name    string
		dtstart time.Time
		text    string
		after   time.Time
		before  time.Time
		want    []time.Time
	}{
		{
			name:    "weekly rule inside window",
			dtstart: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			text:    "RRULE:FREQ=WEEKLY",
			after:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 14, 0, 0, 0, 0, time.UTC),
			want: []time.Time{
				time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "every-other-day rule with weekday exclusion rule",
			dtstart: time.Date(2014, 1, 2, 14, 0, 0, 0, time.UTC),
			text:    "RRULE:FREQ=DAILY;INTERVAL=2\nEXRULE:FREQ=WEEKLY;BYDAY=MO,TU",
			after:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 9, 0, 0, 0, 0, time.UTC),
			want: []time.Time{
				time.Date(2014, 1, 2, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 4, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 8, 14, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "no rules yields the single start occurrence",
			dtstart: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			text:    "",
			after:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 31, 0, 0, 0, 0, time.UTC),
			want: []time.Time{
				time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "start instant is an occurrence even when off-pattern",
			dtstart: time.Date(2014, 1, 8, 14, 0, 0, 0, time.UTC), // a Wednesday
			text:    "RRULE:FREQ=WEEKLY;BYDAY=MO",
			after:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 14, 0, 0, 0, 0, time.UTC),
			want: []time.Time{
				time.Date(2014, 1, 8, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "explicit extra date merges in order",
			dtstart: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			text:    "RRULE:FREQ=WEEKLY\nRDATE:20140110T160000Z",
			after:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 14, 0, 0, 0, 0, time.UTC),
			want: []time.Time{
				time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 10, 16, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "excluded date suppresses its whole day",
			dtstart: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			text:    "RRULE:FREQ=WEEKLY\nEXDATE:20140113T000000Z",
			after:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 31, 0, 0, 0, 0, time.UTC),
			want: []time.Time{
				time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 20, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 27, 14, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "duplicate instants from rule and extra date collapse",
			dtstart: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			text:    "RRULE:FREQ=WEEKLY\nRDATE:20140113T140000Z",
			after:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 14, 0, 0, 0, 0, time.UTC),
			want: []time.Time{
				time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
				time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "window entirely before the start",
			dtstart: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			text:    "RRULE:FREQ=WEEKLY",
			after:   time.Date(2013, 12, 1, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2013, 12, 31, 0, 0, 0, 0, time.UTC),
			want:    nil,
		},
		{
			name:    "inverted window is empty",
			dtstart: time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
			text:    "RRULE:FREQ=WEEKLY",
			after:   time.Date(2014, 1, 14, 0, 0, 0, 0, time.UTC),
			before:  time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := mustRuleset(t, engine, tt.dtstart, tt.text)
			seq, err := engine.Between(rs, tt.after, tt.before)
			require.NoError(t, err)
			assert.Equal(t, tt.want, collect(seq))
		})
	}
}

func TestEngine_Between_InclusiveBounds(t *testing.T) {
	engine := NewEngine(time.UTC)
	rs := mustRuleset(t, engine, time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC), "RRULE:FREQ=WEEKLY")

	// Both window edges land exactly on occurrences; both are kept.
	seq, err := engine.Between(rs,
		time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC),
		time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, collect(seq), 2)
}

func TestEngine_Between_ZeroBoundRejected(t *testing.T) {
	engine := NewEngine(time.UTC)
	rs := mustRuleset(t, engine, time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC), "")

	_, err := engine.Between(rs, time.Time{}, time.Date(2014, 1, 14, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNaiveTime)
	_, err = engine.Between(rs, time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	assert.ErrorIs(t, err, ErrNaiveTime)
}

func TestEngine_Between_DSTWallClockPreserved(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	engine := NewEngine(loc)

	// Weekly slot at 14:00 local; Madrid springs forward on 2024-03-31.
	rs := mustRuleset(t, engine, time.Date(2024, 3, 25, 14, 0, 0, 0, loc), "RRULE:FREQ=WEEKLY")

	seq, err := engine.Between(rs,
		time.Date(2024, 3, 25, 0, 0, 0, 0, loc),
		time.Date(2024, 4, 8, 23, 0, 0, 0, loc))
	require.NoError(t, err)

	got := collect(seq)
	require.Len(t, got, 3)
	for _, occ := range got {
		assert.Equal(t, 14, occ.Hour(), "wall clock must survive the DST switch")
	}
	_, winter := got[0].Zone()
	_, summer := got[2].Zone()
	assert.Equal(t, 3600, winter)
	assert.Equal(t, 2*3600, summer)
}

func TestEngine_After(t *testing.T) {
	engine := NewEngine(time.UTC)
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)
	rs := mustRuleset(t, engine, dtstart, "RRULE:FREQ=WEEKLY")

	t.Run("inclusive hit on an occurrence", func(t *testing.T) {
		got, err := engine.After(rs, dtstart, true)
		require.NoError(t, err)
		occ, ok := got.Get()
		require.True(t, ok)
		assert.True(t, occ.Equal(dtstart))
	})

	t.Run("exclusive steps past the occurrence", func(t *testing.T) {
		got, err := engine.After(rs, dtstart, false)
		require.NoError(t, err)
		occ, ok := got.Get()
		require.True(t, ok)
		assert.True(t, occ.Equal(time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC)))
	})

	t.Run("skips over excluded days", func(t *testing.T) {
		excl := mustRuleset(t, engine, dtstart, "RRULE:FREQ=WEEKLY\nEXDATE:20140113T140000Z")
		got, err := engine.After(excl, dtstart, false)
		require.NoError(t, err)
		occ, ok := got.Get()
		require.True(t, ok)
		assert.True(t, occ.Equal(time.Date(2014, 1, 20, 14, 0, 0, 0, time.UTC)))
	})

	t.Run("none when the rule is exhausted", func(t *testing.T) {
		counted := mustRuleset(t, engine, dtstart, "RRULE:FREQ=WEEKLY;COUNT=2")
		got, err := engine.After(counted, time.Date(2014, 2, 1, 0, 0, 0, 0, time.UTC), true)
		require.NoError(t, err)
		assert.True(t, got.IsAbsent())
	})

	t.Run("zero time is rejected", func(t *testing.T) {
		_, err := engine.After(rs, time.Time{}, true)
		assert.ErrorIs(t, err, ErrNaiveTime)
	})
}

func TestEngine_Before(t *testing.T) {
	engine := NewEngine(time.UTC)
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)
	rs := mustRuleset(t, engine, dtstart, "RRULE:FREQ=WEEKLY")

	t.Run("latest occurrence at or before the cursor", func(t *testing.T) {
		got, err := engine.Before(rs, time.Date(2014, 1, 15, 0, 0, 0, 0, time.UTC), true)
		require.NoError(t, err)
		occ, ok := got.Get()
		require.True(t, ok)
		assert.True(t, occ.Equal(time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC)))
	})

	t.Run("none before the start", func(t *testing.T) {
		got, err := engine.Before(rs, time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC), true)
		require.NoError(t, err)
		assert.True(t, got.IsAbsent())
	})

	t.Run("exclusive edge falls back one occurrence", func(t *testing.T) {
		got, err := engine.Before(rs, time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC), false)
		require.NoError(t, err)
		occ, ok := got.Get()
		require.True(t, ok)
		assert.True(t, occ.Equal(dtstart))
	})

	t.Run("skips over excluded days", func(t *testing.T) {
		excl := mustRuleset(t, engine, dtstart, "RRULE:FREQ=WEEKLY\nEXDATE:20140113T140000Z")
		got, err := engine.Before(excl, time.Date(2014, 1, 15, 0, 0, 0, 0, time.UTC), true)
		require.NoError(t, err)
		occ, ok := got.Get()
		require.True(t, ok)
		assert.True(t, occ.Equal(dtstart))
	})
}

func TestEngine_ExclusionProbeBound(t *testing.T) {
	// Every occurrence excluded: the walk must terminate instead of probing
	// forever.
	engine := NewEngineWithConfig(EngineConfig{Location: time.UTC, MaxExclusionProbes: 10})
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)
	rs := mustRuleset(t, engine, dtstart, "RRULE:FREQ=DAILY\nEXRULE:FREQ=DAILY")

	got, err := engine.After(rs, dtstart, true)
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())
}

func TestEngine_ExcludeIncludeDay(t *testing.T) {
	engine := NewEngine(time.UTC)
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)
	rs := mustRuleset(t, engine, dtstart, "RRULE:FREQ=WEEKLY")

	day := time.Date(2014, 1, 13, 14, 0, 0, 0, time.UTC)
	engine.ExcludeDay(rs, day)
	require.Len(t, rs.ExDates(), 1)

	// Excluding the same day twice is a no-op.
	engine.ExcludeDay(rs, day.Add(2*time.Hour))
	assert.Len(t, rs.ExDates(), 1)

	seq, err := engine.Between(rs, dtstart, time.Date(2014, 1, 20, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		dtstart,
		time.Date(2014, 1, 20, 14, 0, 0, 0, time.UTC),
	}, collect(seq))

	engine.IncludeDay(rs, day)
	assert.Empty(t, rs.ExDates())

	seq, err = engine.Between(rs, dtstart, time.Date(2014, 1, 20, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, collect(seq), 3)
}

func TestEngine_SetDTStart(t *testing.T) {
	engine := NewEngine(time.UTC)
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)
	rs := mustRuleset(t, engine, dtstart, "RRULE:FREQ=WEEKLY")

	moved := time.Date(2014, 1, 7, 16, 0, 0, 0, time.UTC)
	require.NoError(t, engine.SetDTStart(rs, moved))
	assert.True(t, rs.DTStart().Equal(moved))

	// The rule phase follows the new start.
	seq, err := engine.Between(rs, moved, time.Date(2014, 1, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		moved,
		time.Date(2014, 1, 14, 16, 0, 0, 0, time.UTC),
	}, collect(seq))
}

func TestEngine_TruncateUntils(t *testing.T) {
	engine := NewEngine(time.UTC)
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)
	rs := mustRuleset(t, engine, dtstart, "RRULE:FREQ=DAILY;UNTIL=20140108T000000Z")

	// Midnight bound would drop the occurrences on its own day.
	require.NoError(t, engine.TruncateUntils(rs))

	until, ok := rs.Rules()[0].Until()
	require.True(t, ok)
	assert.Equal(t, time.Date(2014, 1, 8, 23, 59, 59, 0, time.UTC), until.UTC())

	seq, err := engine.Between(rs, dtstart, time.Date(2014, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		dtstart,
		time.Date(2014, 1, 7, 14, 0, 0, 0, time.UTC),
		time.Date(2014, 1, 8, 14, 0, 0, 0, time.UTC),
	}, collect(seq))

	// Running it again changes nothing.
	raw := rs.Rules()[0].Raw()
	require.NoError(t, engine.TruncateUntils(rs))
	assert.Equal(t, raw, rs.Rules()[0].Raw())
}

func TestRewriteUntil(t *testing.T) {
	until := time.Date(2014, 1, 8, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, "FREQ=DAILY;UNTIL=20140108T235959Z",
		rewriteUntil("FREQ=DAILY;UNTIL=20140108T000000Z", until))
	assert.Equal(t, "FREQ=DAILY;UNTIL=20140108T235959Z",
		rewriteUntil("FREQ=DAILY", until))
	assert.Equal(t, "FREQ=DAILY;UNTIL=20140108T235959Z;INTERVAL=2",
		rewriteUntil("FREQ=DAILY;UNTIL=20140101T000000Z;INTERVAL=2", until))
}

func TestRuleset_Untils(t *testing.T) {
	engine := NewEngine(time.UTC)
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)

	bounded := mustRuleset(t, engine, dtstart,
		"RRULE:FREQ=DAILY;UNTIL=20140108T235959Z\nRRULE:FREQ=WEEKLY;UNTIL=20140120T235959Z")
	untils, ok := bounded.Untils()
	assert.True(t, ok)
	assert.Len(t, untils, 2)

	open := mustRuleset(t, engine, dtstart,
		"RRULE:FREQ=DAILY;UNTIL=20140108T235959Z\nRRULE:FREQ=WEEKLY")
	_, ok = open.Untils()
	assert.False(t, ok)
}

func TestRuleset_HasRules(t *testing.T) {
	engine := NewEngine(time.UTC)
	dtstart := time.Date(2014, 1, 6, 14, 0, 0, 0, time.UTC)

	assert.False(t, mustRuleset(t, engine, dtstart, "").HasRules())
	assert.True(t, mustRuleset(t, engine, dtstart, "RRULE:FREQ=DAILY").HasRules())
	assert.True(t, mustRuleset(t, engine, dtstart, "RDATE:20140110T140000Z").HasRules())
	assert.False(t, mustRuleset(t, engine, dtstart, "EXDATE:20140110T140000Z").HasRules())
}
