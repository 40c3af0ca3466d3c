package recurrence

import (
	"strings"
	"time"

	"github.com/samber/mo"
)

// Seq is a lazy, ascending stream of occurrence instants. It is single-pass:
// once consumed it cannot be restarted, callers needing repeated access must
// re-invoke the query that produced it.
type Seq func() (time.Time, bool)

// Engine answers occurrence queries over a Ruleset. Evaluation happens in
// the default-timezone space of its Normalizer; results are re-localized
// into the caller's requested timezone.
type Engine struct {
	tz *Normalizer

	// maxProbes bounds the exclusion walk in After/Before so a ruleset whose
	// exclusions swallow every occurrence cannot loop forever.
	maxProbes int
}

// EngineConfig holds configuration options for the recurrence engine.
type EngineConfig struct {
	Location *time.Location

	// MaxExclusionProbes is the number of excluded occurrences After and
	// Before skip over before giving up. 0 uses the default.
	MaxExclusionProbes int
}

const defaultMaxExclusionProbes = 1000

// NewEngine creates an engine evaluating in the given default timezone.
func NewEngine(loc *time.Location) *Engine {
	return NewEngineWithConfig(EngineConfig{Location: loc})
}

// NewEngineWithConfig creates an engine with custom configuration.
func NewEngineWithConfig(cfg EngineConfig) *Engine {
	probes := cfg.MaxExclusionProbes
	if probes <= 0 {
		probes = defaultMaxExclusionProbes
	}
	return &Engine{
		tz:        NewNormalizer(cfg.Location),
		maxProbes: probes,
	}
}

// Normalizer returns the engine's timezone normalizer.
func (e *Engine) Normalizer() *Normalizer {
	return e.tz
}

// Between produces the ascending occurrence stream of rs in [after, before],
// inclusive of both bounds. Each instant is re-localized into after's
// timezone. The stream is finite and single-pass.
func (e *Engine) Between(rs *Ruleset, after, before time.Time) (Seq, error) {
	if after.IsZero() || before.IsZero() {
		return nil, ErrNaiveTime
	}
	requested := after.Location()
	a, err := e.tz.ToDefault(after)
	if err != nil {
		return nil, err
	}
	b, err := e.tz.ToDefault(before)
	if err != nil {
		return nil, err
	}
	if a.After(b) {
		return emptySeq, nil
	}

	inRange := func(t time.Time) bool {
		return !t.Before(a) && !t.After(b)
	}

	var sources [][]time.Time
	for _, r := range rs.rules {
		if occs := r.rule.Between(a, b, true); len(occs) > 0 {
			sources = append(sources, occs)
		}
	}
	var extra []time.Time
	if inRange(rs.dtstart) {
		extra = append(extra, rs.dtstart)
	}
	for _, t := range rs.rdates {
		if inRange(t) {
			extra = append(extra, t)
		}
	}
	if len(extra) > 0 {
		sortTimes(extra)
		sources = append(sources, extra)
	}

	idx := make([]int, len(sources))
	var last time.Time
	haveLast := false
	return func() (time.Time, bool) {
		for {
			best := -1
			for i, src := range sources {
				if idx[i] >= len(src) {
					continue
				}
				if best == -1 || src[idx[i]].Before(sources[best][idx[best]]) {
					best = i
				}
			}
			if best == -1 {
				return time.Time{}, false
			}
			cand := sources[best][idx[best]]
			idx[best]++
			if haveLast && cand.Equal(last) {
				continue
			}
			last, haveLast = cand, true
			if e.excluded(rs, cand) {
				continue
			}
			return e.tz.FixRecurrenceResult(cand, requested), true
		}
	}, nil
}

// After returns the first occurrence at (inclusive) or after t, re-localized
// into t's timezone. None when no such occurrence exists.
func (e *Engine) After(rs *Ruleset, t time.Time, inclusive bool) (mo.Option[time.Time], error) {
	if t.IsZero() {
		return mo.None[time.Time](), ErrNaiveTime
	}
	requested := t.Location()
	cursor, err := e.tz.ToDefault(t)
	if err != nil {
		return mo.None[time.Time](), err
	}
	inc := inclusive
	for probe := 0; probe < e.maxProbes; probe++ {
		cand, ok := e.nextCandidate(rs, cursor, inc)
		if !ok {
			return mo.None[time.Time](), nil
		}
		if !e.excluded(rs, cand) {
			return mo.Some(e.tz.FixRecurrenceResult(cand, requested)), nil
		}
		cursor, inc = cand, false
	}
	return mo.None[time.Time](), nil
}

// Before returns the latest occurrence at (inclusive) or before t,
// re-localized into t's timezone. None when rs starts after t.
func (e *Engine) Before(rs *Ruleset, t time.Time, inclusive bool) (mo.Option[time.Time], error) {
	if t.IsZero() {
		return mo.None[time.Time](), ErrNaiveTime
	}
	requested := t.Location()
	cursor, err := e.tz.ToDefault(t)
	if err != nil {
		return mo.None[time.Time](), err
	}
	inc := inclusive
	for probe := 0; probe < e.maxProbes; probe++ {
		cand, ok := e.prevCandidate(rs, cursor, inc)
		if !ok {
			return mo.None[time.Time](), nil
		}
		if !e.excluded(rs, cand) {
			return mo.Some(e.tz.FixRecurrenceResult(cand, requested)), nil
		}
		cursor, inc = cand, false
	}
	return mo.None[time.Time](), nil
}

// nextCandidate finds the earliest raw occurrence >= cursor (> when inc is
// false) across repeat rules, explicit extra dates and DTSTART, before any
// exclusion filtering.
func (e *Engine) nextCandidate(rs *Ruleset, cursor time.Time, inc bool) (time.Time, bool) {
	after := func(t time.Time) bool {
		if inc {
			return !t.Before(cursor)
		}
		return t.After(cursor)
	}

	var best time.Time
	found := false
	consider := func(t time.Time) {
		if t.IsZero() || !after(t) {
			return
		}
		if !found || t.Before(best) {
			best, found = t, true
		}
	}

	for _, r := range rs.rules {
		consider(r.rule.After(cursor, inc))
	}
	consider(rs.dtstart)
	for _, t := range rs.rdates {
		if after(t) {
			consider(t)
			break
		}
	}
	return best, found
}

// prevCandidate is the descending counterpart of nextCandidate.
func (e *Engine) prevCandidate(rs *Ruleset, cursor time.Time, inc bool) (time.Time, bool) {
	before := func(t time.Time) bool {
		if inc {
			return !t.After(cursor)
		}
		return t.Before(cursor)
	}

	var best time.Time
	found := false
	consider := func(t time.Time) {
		if t.IsZero() || !before(t) {
			return
		}
		if !found || t.After(best) {
			best, found = t, true
		}
	}

	for _, r := range rs.rules {
		consider(r.rule.Before(cursor, inc))
	}
	consider(rs.dtstart)
	for i := len(rs.rdates) - 1; i >= 0; i-- {
		if before(rs.rdates[i]) {
			consider(rs.rdates[i])
			break
		}
	}
	return best, found
}

// excluded reports whether the ruleset suppresses whatever occurrence falls
// on t's wall-clock day in the default timezone. Day granularity absorbs DST
// shifts of an hour between an exclusion entry and the occurrence it targets.
func (e *Engine) excluded(rs *Ruleset, t time.Time) bool {
	for _, ex := range rs.exdates {
		if e.tz.SameDay(ex, t) {
			return true
		}
	}
	if len(rs.exRules) > 0 {
		dayStart := e.tz.StartOfDay(t)
		dayEnd := e.tz.EndOfDay(t)
		for _, xr := range rs.exRules {
			if len(xr.rule.Between(dayStart, dayEnd, true)) > 0 {
				return true
			}
		}
	}
	return false
}

// SetDTStart moves the ruleset's start instant and recompiles every rule
// against it, keeping rule phase consistent after a start-time edit.
func (e *Engine) SetDTStart(rs *Ruleset, start time.Time) error {
	dtstart, err := e.tz.ToDefault(start)
	if err != nil {
		return err
	}
	rules, err := recompileAll(rs.rules, dtstart)
	if err != nil {
		return err
	}
	exRules, err := recompileAll(rs.exRules, dtstart)
	if err != nil {
		return err
	}
	rs.dtstart = dtstart
	rs.rules = rules
	rs.exRules = exRules
	return nil
}

// SetExDates replaces the excluded instants wholesale, normalized to the
// default timezone and kept ascending.
func (e *Engine) SetExDates(rs *Ruleset, dates []time.Time) {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.In(e.tz.Location()))
	}
	sortTimes(out)
	rs.exdates = out
}

// ExcludeDay adds t to the excluded instants unless its day is already
// excluded.
func (e *Engine) ExcludeDay(rs *Ruleset, t time.Time) {
	for _, ex := range rs.exdates {
		if e.tz.SameDay(ex, t) {
			return
		}
	}
	rs.exdates = append(rs.exdates, t.In(e.tz.Location()))
	sortTimes(rs.exdates)
}

// IncludeDay removes any excluded instant on t's wall-clock day.
func (e *Engine) IncludeDay(rs *Ruleset, t time.Time) {
	out := rs.exdates[:0]
	for _, ex := range rs.exdates {
		if !e.tz.SameDay(ex, t) {
			out = append(out, ex)
		}
	}
	rs.exdates = out
}

// TruncateUntils pushes every rule's UNTIL bound to 23:59:59 of its day in
// the default timezone, so a rule declared to end on day D still covers all
// of D.
func (e *Engine) TruncateUntils(rs *Ruleset) error {
	for i, r := range rs.rules {
		until, ok := r.Until()
		if !ok {
			continue
		}
		truncated := e.tz.EndOfDay(until)
		if truncated.Equal(until) {
			continue
		}
		raw := rewriteUntil(r.raw, truncated)
		recompiled, err := compileRule(raw, rs.dtstart)
		if err != nil {
			return err
		}
		rs.rules[i] = recompiled
	}
	return nil
}

func recompileAll(rules []*Rule, dtstart time.Time) ([]*Rule, error) {
	out := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		recompiled, err := compileRule(r.raw, dtstart)
		if err != nil {
			return nil, err
		}
		out = append(out, recompiled)
	}
	return out, nil
}

// rewriteUntil replaces the UNTIL component of a raw rule value. rrule
// serializes UNTIL in UTC.
func rewriteUntil(raw string, until time.Time) string {
	value := until.UTC().Format("20060102T150405Z")
	parts := strings.Split(raw, ";")
	for i, part := range parts {
		if strings.HasPrefix(strings.ToUpper(part), "UNTIL=") {
			parts[i] = "UNTIL=" + value
			return strings.Join(parts, ";")
		}
	}
	return raw + ";UNTIL=" + value
}

func emptySeq() (time.Time, bool) {
	return time.Time{}, false
}
