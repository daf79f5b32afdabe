// Package streak computes consecutive-day streaks over dated journal records.
//
// Every record contributes its calendar day (YYYY-MM-DD, interpreted as UTC
// midnight). Several records on the same day count once.
package streak

import (
	"sort"
	"time"
)

const (
	dayLayout = "2006-01-02"
	dayMS     = int64(24 * time.Hour / time.Millisecond)
)

// Dated is any record bearing a YYYY-MM-DD day key.
type Dated interface {
	DayKey() string
}

// State is the derived streak view of a journal.
type State struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Compute returns both streak values for records as of now.
func Compute[R Dated](records []R, now time.Time) State {
	return State{
		Current: Current(records, now),
		Longest: Longest(records),
	}
}

// Current returns the length of the run of consecutive days ending at the
// most recent record day. The run only counts while that day is today or
// yesterday (UTC); otherwise the streak is broken and Current returns 0.
func Current[R Dated](records []R, now time.Time) int {
	days := distinctDays(records)
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	today := midnightMS(now)
	mostRecent := days[0]
	if mostRecent != today && mostRecent != today-dayMS {
		return 0
	}

	count := 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] != dayMS {
			break
		}
		count++
	}
	return count
}

// Longest returns the longest run of consecutive days anywhere in the history.
func Longest[R Dated](records []R) int {
	days := distinctDays(records)
	if len(days) < 2 {
		return len(days)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == dayMS {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// distinctDays collapses record day keys into unique UTC-midnight epoch
// milliseconds. Keys that do not parse are skipped.
func distinctDays[R Dated](records []R) []int64 {
	seen := make(map[int64]struct{}, len(records))
	out := make([]int64, 0, len(records))
	for _, rec := range records {
		ms, ok := parseDay(rec.DayKey())
		if !ok {
			continue
		}
		if _, dup := seen[ms]; dup {
			continue
		}
		seen[ms] = struct{}{}
		out = append(out, ms)
	}
	return out
}

func parseDay(key string) (int64, bool) {
	t, err := time.ParseInLocation(dayLayout, key, time.UTC)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

func midnightMS(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()
}
