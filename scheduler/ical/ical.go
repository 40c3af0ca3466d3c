// Package ical exchanges transmission windows and schedule definitions as
// iCalendar data.
package ical

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/nandovz/airsched/scheduler"
)

const productID = "-//airsched//Broadcast Scheduler//EN"

// ExportTransmissions writes one VEVENT per transmission to w as a VCALENDAR
// stream. The seq is consumed exactly once.
func ExportTransmissions(w io.Writer, seq scheduler.TransmissionSeq) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	for tx, ok := seq(); ok; tx, ok = seq() {
		event := ical.NewComponent(ical.CompEvent)
		event.Props.SetText(ical.PropUID, transmissionUID(tx))
		event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, tx.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, tx.End().UTC())
		event.Props.SetText(ical.PropSummary, tx.ProgrammeName())
		event.Props.SetText(ical.PropCategories, string(tx.Schedule.Type))
		if tx.Schedule.Programme.Synopsis != "" {
			event.Props.SetText(ical.PropDescription, tx.Schedule.Programme.Synopsis)
		}
		cal.Children = append(cal.Children, event)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// transmissionUID derives a stable UID from schedule identity and instant.
func transmissionUID(tx scheduler.Transmission) string {
	id := tx.Schedule.ID
	if id == "" {
		id = uuid.NewString()
	}
	return fmt.Sprintf("%s-%d@airsched", id, tx.Start.Unix())
}

// ScheduleDraft is what an imported VEVENT contributes to a new schedule:
// the start instant, the transmission runtime and the recurrence property
// block.
type ScheduleDraft struct {
	Start      time.Time
	Runtime    time.Duration
	Summary    string
	Recurrence string
}

// ScheduleFromEvent reads a VEVENT component into a draft. DTSTART is
// required; runtime comes from DTEND or DURATION, falling back to fallback
// when neither is present.
func ScheduleFromEvent(comp *ical.Component, fallback time.Duration) (*ScheduleDraft, error) {
	if comp.Name != ical.CompEvent {
		return nil, fmt.Errorf("expected %s component, got %s", ical.CompEvent, comp.Name)
	}
	start, err := comp.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read DTSTART: %w", err)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("event has no DTSTART")
	}

	runtime := fallback
	if end, err := comp.Props.DateTime(ical.PropDateTimeEnd, nil); err == nil && end.After(start) {
		runtime = end.Sub(start)
	} else if durProp := comp.Props.Get(ical.PropDuration); durProp != nil {
		if dur, err := durProp.Duration(); err == nil {
			runtime = dur
		}
	}

	draft := &ScheduleDraft{Start: start, Runtime: runtime}
	if summary, err := comp.Props.Text(ical.PropSummary); err == nil {
		draft.Summary = summary
	}

	var lines []string
	for _, name := range []string{ical.PropRecurrenceRule, ical.PropRecurrenceDates, ical.PropExceptionDates} {
		for _, prop := range comp.Props[name] {
			if prop.Value == "" {
				continue
			}
			lines = append(lines, name+":"+prop.Value)
		}
	}
	draft.Recurrence = strings.Join(lines, "\n")
	return draft, nil
}
