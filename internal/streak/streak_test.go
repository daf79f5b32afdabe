package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type day string

func (d day) DayKey() string { return string(d) }

var now = time.Date(2026, time.March, 10, 21, 30, 0, 0, time.UTC)

func ago(n int) day {
	return day(now.AddDate(0, 0, -n).Format(dayLayout))
}

func TestSingleDreamToday(t *testing.T) {
	records := []day{ago(0)}
	assert.Equal(t, State{Current: 1, Longest: 1}, Compute(records, now))
}

func TestYesterdayKeepsStreakAlive(t *testing.T) {
	assert.Equal(t, 1, Current([]day{ago(1)}, now))
}

func TestTwoDaysAgoBreaksStreak(t *testing.T) {
	records := []day{ago(2)}
	assert.Equal(t, 0, Current(records, now))
	assert.Equal(t, 1, Longest(records))
}

func TestConsecutiveRun(t *testing.T) {
	records := []day{ago(0), ago(1), ago(2)}
	assert.Equal(t, State{Current: 3, Longest: 3}, Compute(records, now))
}

func TestGapStopsCurrentRun(t *testing.T) {
	records := []day{ago(0), ago(2)}
	assert.Equal(t, State{Current: 1, Longest: 1}, Compute(records, now))
}

func TestLongestDivergesFromCurrent(t *testing.T) {
	records := []day{ago(0), ago(10), ago(9), ago(8)}
	got := Compute(records, now)
	assert.Equal(t, 1, got.Current)
	assert.Equal(t, 3, got.Longest)
}

func TestSameDayRecordsCollapse(t *testing.T) {
	records := []day{ago(0), ago(0), ago(0)}
	assert.Equal(t, State{Current: 1, Longest: 1}, Compute(records, now))
}

func TestEmptyAndMalformed(t *testing.T) {
	assert.Equal(t, State{}, Compute([]day{}, now))
	assert.Equal(t, State{}, Compute([]day{"not-a-date", ""}, now))
	assert.Equal(t, State{Current: 1, Longest: 1}, Compute([]day{"garbage", ago(0)}, now))
}

func TestLongestCountsFinalRun(t *testing.T) {
	records := []day{ago(20), ago(5), ago(4), ago(3), ago(2)}
	assert.Equal(t, 4, Longest(records))
	assert.Equal(t, 0, Current(records, now))
}

func TestUnorderedInputAcrossMonthBoundary(t *testing.T) {
	records := []day{"2026-03-01", "2026-02-27", "2026-02-28"}
	clock := time.Date(2026, time.March, 2, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, State{Current: 3, Longest: 3}, Compute(records, clock))
}

func TestNonUTCClockUsesUTCDay(t *testing.T) {
	// 01:00 on March 11 in UTC+3 is still March 10 in UTC.
	loc := time.FixedZone("UTC+3", 3*60*60)
	clock := time.Date(2026, time.March, 11, 1, 0, 0, 0, loc)
	records := []day{"2026-03-10", "2026-03-09"}
	assert.Equal(t, 2, Current(records, clock))
}

func TestLongestNeverBelowCurrent(t *testing.T) {
	cases := [][]day{
		{ago(0)},
		{ago(1), ago(2), ago(3)},
		{ago(0), ago(1), ago(5), ago(6), ago(7), ago(8)},
		{ago(0), ago(0), ago(1)},
	}
	for _, records := range cases {
		got := Compute(records, now)
		assert.GreaterOrEqual(t, got.Longest, got.Current, "records=%v", records)
	}
}
