/*
Package recurrence resolves recurring broadcast rules into concrete
occurrence instants.

A Ruleset wraps a start instant, RFC 5545 repeat and exclusion rules, and
explicit extra/excluded dates. An Engine answers "first occurrence after",
"last occurrence before" and "all occurrences between" over a ruleset,
evaluating in the station's default timezone and re-localizing results into
the caller's timezone so occurrences keep their wall-clock slot across DST
transitions.

	engine := recurrence.NewEngine(loc)
	rs, err := engine.ParseRuleset(startDT, "RRULE:FREQ=WEEKLY")
	seq, err := engine.Between(rs, windowStart, windowEnd)
	for t, ok := seq(); ok; t, ok = seq() {
		// ...
	}

Occurrence streams are single-pass; exclusions act at wall-clock-day
granularity in the default timezone.
*/
package recurrence
