package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Wire formats for RDATE/EXDATE/DTSTART values, matching RFC 5545 and what
// rrule uses for UNTIL.
const (
	formatUTC      = "20060102T150405Z"
	formatLocal    = "20060102T150405"
	formatDateOnly = "20060102"
)

// ParseRuleset builds a Ruleset from an RFC 5545 property block: one
// RRULE/EXRULE/RDATE/EXDATE property per line, with dtstart as the phase
// reference. A DTSTART line is honored when dtstart is the zero time.
// Malformed text is an error; an empty block yields a single-occurrence
// ruleset at dtstart.
func (e *Engine) ParseRuleset(dtstart time.Time, text string) (*Ruleset, error) {
	rs := &Ruleset{}

	var pending []string // rule lines held until DTSTART is settled
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, params, value, err := splitProperty(line)
		if err != nil {
			return nil, err
		}
		switch name {
		case "DTSTART":
			if dtstart.IsZero() {
				dtstart, err = e.parseDateValue(value, params)
				if err != nil {
					return nil, err
				}
			}
		case "RRULE", "EXRULE":
			pending = append(pending, line)
		case "RDATE":
			dates, err := e.parseDateList(value, params)
			if err != nil {
				return nil, err
			}
			rs.rdates = append(rs.rdates, dates...)
		case "EXDATE":
			dates, err := e.parseDateList(value, params)
			if err != nil {
				return nil, err
			}
			rs.exdates = append(rs.exdates, dates...)
		default:
			return nil, fmt.Errorf("unsupported recurrence property %q", name)
		}
	}

	if dtstart.IsZero() {
		return nil, ErrNaiveTime
	}
	rs.dtstart = dtstart.In(e.tz.Location())

	for _, line := range pending {
		name, _, value, _ := splitProperty(line)
		rule, err := compileRule(value, rs.dtstart)
		if err != nil {
			return nil, err
		}
		if name == "RRULE" {
			rs.rules = append(rs.rules, rule)
		} else {
			rs.exRules = append(rs.exRules, rule)
		}
	}

	sortTimes(rs.rdates)
	sortTimes(rs.exdates)
	return rs, nil
}

// String serializes the ruleset back to an RFC 5545 property block. Dates
// are written in UTC. DTSTART is not included; it travels separately as the
// schedule's start instant.
func (rs *Ruleset) String() string {
	var lines []string
	for _, r := range rs.rules {
		lines = append(lines, "RRULE:"+r.raw)
	}
	for _, r := range rs.exRules {
		lines = append(lines, "EXRULE:"+r.raw)
	}
	if len(rs.rdates) > 0 {
		lines = append(lines, "RDATE:"+formatDateList(rs.rdates))
	}
	if len(rs.exdates) > 0 {
		lines = append(lines, "EXDATE:"+formatDateList(rs.exdates))
	}
	return strings.Join(lines, "\n")
}

// splitProperty cuts "NAME;PARAM=X:VALUE" into its parts.
func splitProperty(line string) (name, params, value string, err error) {
	head, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", "", fmt.Errorf("malformed recurrence property %q", line)
	}
	name, params, _ = strings.Cut(head, ";")
	return strings.ToUpper(name), strings.ToUpper(params), value, nil
}

func (e *Engine) parseDateList(value, params string) ([]time.Time, error) {
	var out []time.Time
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		t, err := e.parseDateValue(item, params)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// parseDateValue handles the UTC, floating and date-only forms. Floating and
// date-only values are interpreted in the default timezone; TZID parameters
// are not supported.
func (e *Engine) parseDateValue(value, params string) (time.Time, error) {
	if strings.Contains(params, "TZID=") {
		return time.Time{}, fmt.Errorf("TZID parameters are not supported: %q", params)
	}
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(formatUTC, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed date value %q: %w", value, err)
		}
		return t.In(e.tz.Location()), nil
	}
	if t, err := time.ParseInLocation(formatLocal, value, e.tz.Location()); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(formatDateOnly, value, e.tz.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date value %q: %w", value, err)
	}
	return t, nil
}

func formatDateList(dates []time.Time) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.UTC().Format(formatUTC)
	}
	return strings.Join(parts, ",")
}
