/*
Package scheduler computes and manages recurring broadcast schedules for a
radio station: given a programme and a recurrence definition it resolves the
concrete airing instants over any time window, honoring timezone
transitions, per-day exclusions, the programme's validity window and the
owning calendar's period.

# Basic Usage

	store := memory.New()
	s := scheduler.New(store, scheduler.Config{Location: loc})
	defer s.Close()

	sch, err := s.NewSchedule(programme, calendar, storage.EmissionLive,
		startDT, "RRULE:FREQ=WEEKLY")
	if err != nil {
		log.Fatal(err)
	}
	if err := s.SaveSchedule(ctx, sch); err != nil {
		log.Fatal(err)
	}

	seq, err := s.TransmissionsBetween(ctx, windowStart, windowEnd)
	for tx, ok := seq(); ok; tx, ok = seq() {
		fmt.Println(tx.Start, tx.ProgrammeName())
	}

Every save rederives the schedule's effective window (the cached bounds
within which occurrences can exist) and keeps the durable excluded-date rows
identical to the exclusion entries embedded in the recurrence definition.

# Custom Storage Backend

Persistence is pluggable: implement storage.Storage. The module ships an
in-memory backend and a PostgreSQL backend.
*/
package scheduler
