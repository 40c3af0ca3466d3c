package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/nandovz/airsched/scheduler"
	"github.com/nandovz/airsched/scheduler/ical"
	"github.com/nandovz/airsched/scheduler/storage"
	"github.com/nandovz/airsched/scheduler/storage/memory"
	"github.com/nandovz/airsched/scheduler/xmltv"
)

func main() {
	// Optional .env with STATION_TIMEZONE; absence is fine.
	_ = godotenv.Load()

	tzName := os.Getenv("STATION_TIMEZONE")
	if tzName == "" {
		tzName = "Europe/Madrid"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("unknown timezone %q: %v", tzName, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := memory.New()
	sched := scheduler.New(store, scheduler.Config{Location: loc, Logger: logger})
	defer sched.Close()

	ctx := context.Background()
	if err := run(ctx, sched, store, loc); err != nil {
		log.Fatalf("example failed: %v", err)
	}
}

func run(ctx context.Context, sched *scheduler.Scheduler, store storage.Storage, loc *time.Location) error {
	// Seed a small station: one calendar, two programmes, three slots.
	calendar := &storage.Calendar{Name: "Season 2026"}
	if err := store.CreateCalendar(ctx, calendar); err != nil {
		return err
	}
	if err := sched.ActivateCalendar(ctx, calendar.ID); err != nil {
		return err
	}

	morning := &storage.Programme{
		Name:     "Morning News",
		Slug:     "morning-news",
		Synopsis: "Daily news roundup with interviews.",
		Category: "news",
		Language: "es",
		Runtime:  time.Hour,
	}
	jazz := &storage.Programme{
		Name:     "Late Night Jazz",
		Slug:     "late-night-jazz",
		Synopsis: "Two hours of classic and modern jazz.",
		Category: "music",
		Language: "en",
		Runtime:  2 * time.Hour,
	}
	for _, p := range []*storage.Programme{morning, jazz} {
		if err := store.CreateProgramme(ctx, p); err != nil {
			return err
		}
	}

	monday := nextMonday(time.Now().In(loc))

	// Morning News airs live every weekday at 08:00.
	news, err := sched.NewSchedule(morning, calendar, storage.EmissionLive,
		time.Date(monday.Year(), monday.Month(), monday.Day(), 8, 0, 0, 0, loc),
		"RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR")
	if err != nil {
		return err
	}
	if err := sched.SaveSchedule(ctx, news); err != nil {
		return err
	}

	// Late Night Jazz airs twice a week at 23:00.
	jazzSlot, err := sched.NewSchedule(jazz, calendar, storage.EmissionBroadcast,
		time.Date(monday.Year(), monday.Month(), monday.Day(), 23, 0, 0, 0, loc),
		"RRULE:FREQ=WEEKLY;BYDAY=MO,FR")
	if err != nil {
		return err
	}
	if err := sched.SaveSchedule(ctx, jazzSlot); err != nil {
		return err
	}

	// Knock out Wednesday's news slot, then print the week's guide.
	if err := sched.ExcludeOccurrence(ctx, news, monday.AddDate(0, 0, 2)); err != nil {
		return err
	}

	weekStart := sched.Engine().Normalizer().StartOfDay(monday)
	weekEnd := weekStart.AddDate(0, 0, 7)

	seq, err := sched.TransmissionsBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}
	log.Println("transmissions this week:")
	for tx, ok := seq(); ok; tx, ok = seq() {
		log.Printf("  %s  %s", tx.Start.Format("Mon 2006-01-02 15:04"), tx.ProgrammeName())
	}

	// Export the same window as iCalendar and as an XMLTV guide.
	seq, err = sched.TransmissionsBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}
	if err := ical.ExportTransmissions(os.Stdout, seq); err != nil {
		return err
	}

	seq, err = sched.TransmissionsBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}
	return xmltv.Write(os.Stdout, xmltv.Channel{
		ID:          "airsched.example",
		DisplayName: "Example FM",
	}, seq)
}

// nextMonday returns the first Monday strictly after t, at t's wall clock.
func nextMonday(t time.Time) time.Time {
	days := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}
