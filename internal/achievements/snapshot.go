package achievements

import (
	"time"

	"dreamcatcher/internal/journal"
	"dreamcatcher/internal/levels"
	"dreamcatcher/internal/streak"
)

// Snapshot is the aggregate journal state achievement predicates read from.
// Collections are shared with the owner, not copied.
type Snapshot struct {
	Dreams        []journal.Dream
	Totems        []journal.Totem
	Symbols       []journal.Symbol
	Incubations   []journal.IncubationSession
	SleepSessions []journal.SleepSession
	Readings      []journal.Reading
	Odysseys      []journal.Odyssey
	Series        []journal.Series
	XP            int
	Now           time.Time
}

// Count returns the size of a named collection, or -1 when the name is unknown.
func (s Snapshot) Count(collection string) int {
	switch collection {
	case "dreams":
		return len(s.Dreams)
	case "totems":
		return len(s.Totems)
	case "symbols":
		return len(s.Symbols)
	case "incubations":
		return len(s.Incubations)
	case "sleep_sessions":
		return len(s.SleepSessions)
	case "readings":
		return len(s.Readings)
	case "odysseys":
		return len(s.Odysseys)
	case "series":
		return len(s.Series)
	}
	return -1
}

func (s Snapshot) Streaks() streak.State {
	return streak.Compute(s.Dreams, s.now())
}

func (s Snapshot) Level() levels.State {
	return levels.Compute(s.XP)
}

func (s Snapshot) countDreams(keep func(journal.Dream) bool) int {
	n := 0
	for _, d := range s.Dreams {
		if keep(d) {
			n++
		}
	}
	return n
}

func (s Snapshot) now() time.Time {
	if s.Now.IsZero() {
		return time.Now()
	}
	return s.Now
}
