package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// Rule pairs an RFC 5545 rule value with its compiled form. The raw text is
// kept as the source of truth for serialization; the compiled rule is always
// built from it with the owning ruleset's DTSTART attached.
type Rule struct {
	raw  string
	rule *rrule.RRule
}

// Raw returns the RFC 5545 value of the rule, without the property name.
func (r *Rule) Raw() string {
	return r.raw
}

// Until returns the rule's UNTIL bound and whether one is set.
func (r *Rule) Until() (time.Time, bool) {
	u := r.rule.OrigOptions.Until
	return u, !u.IsZero()
}

func compileRule(raw string, dtstart time.Time) (*Rule, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule %q: %w", raw, err)
	}
	opt.Dtstart = dtstart
	compiled, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule %q: %w", raw, err)
	}
	return &Rule{raw: raw, rule: compiled}, nil
}

// Ruleset wraps a recurrence definition: a start instant, repeat rules,
// exclusion rules, explicit extra dates and explicit excluded dates. All
// instants are held in the default timezone of the engine that built it.
type Ruleset struct {
	dtstart time.Time
	rules   []*Rule
	exRules []*Rule
	rdates  []time.Time
	exdates []time.Time
}

// DTStart returns the start instant the rules are phase-referenced to.
func (rs *Ruleset) DTStart() time.Time {
	return rs.dtstart
}

// Rules returns the repeat rules.
func (rs *Ruleset) Rules() []*Rule {
	return rs.rules
}

// ExRules returns the exclusion rules.
func (rs *Ruleset) ExRules() []*Rule {
	return rs.exRules
}

// RDates returns the explicit extra occurrence instants, ascending.
func (rs *Ruleset) RDates() []time.Time {
	return rs.rdates
}

// ExDates returns the explicit excluded instants, ascending.
func (rs *Ruleset) ExDates() []time.Time {
	return rs.exdates
}

// HasRules reports whether the definition has a repeat component. A ruleset
// without one behaves as a single occurrence at DTSTART.
func (rs *Ruleset) HasRules() bool {
	return len(rs.rules) > 0 || len(rs.rdates) > 0
}

// Untils collects the UNTIL bound of every repeat rule. bounded is false if
// any rule is open-ended, in which case the last occurrence of the ruleset
// cannot be determined.
func (rs *Ruleset) Untils() (untils []time.Time, bounded bool) {
	bounded = true
	for _, r := range rs.rules {
		u, ok := r.Until()
		if !ok {
			bounded = false
			continue
		}
		untils = append(untils, u)
	}
	return untils, bounded
}

// Clone returns a deep copy. Compiled rules are shared; they are immutable
// once built.
func (rs *Ruleset) Clone() *Ruleset {
	out := &Ruleset{
		dtstart: rs.dtstart,
		rules:   append([]*Rule(nil), rs.rules...),
		exRules: append([]*Rule(nil), rs.exRules...),
		rdates:  append([]time.Time(nil), rs.rdates...),
		exdates: append([]time.Time(nil), rs.exdates...),
	}
	return out
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
