// Package devtools holds named sample journals for demos and tests.
package devtools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dreamcatcher/internal/app"
	"dreamcatcher/internal/journal"
)

type Scenario struct {
	Name        string
	Description string
	seed        func(ctx context.Context, j Journal, now time.Time) error
}

type Manager struct {
	scenarios map[string]Scenario
}

func NewManager() *Manager {
	m := &Manager{scenarios: map[string]Scenario{}}
	for _, s := range []Scenario{
		{Name: "empty", Description: "A fresh journal.", seed: func(context.Context, Journal, time.Time) error { return nil }},
		{Name: "first_night", Description: "One vivid dream recorded today.", seed: seedFirstNight},
		{Name: "week_streak", Description: "A dream and a night of sleep on each of the last seven days.", seed: seedWeekStreak},
		{Name: "veteran", Description: "Two weeks of journaling touching every collection.", seed: seedVeteran},
	} {
		m.scenarios[s.Name] = s
	}
	return m
}

// Resolve returns the named scenario, falling back to "empty".
func (m *Manager) Resolve(name string) Scenario {
	if s, ok := m.scenarios[name]; ok {
		return s
	}
	return m.scenarios["empty"]
}

func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.scenarios))
	for name := range m.scenarios {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Apply writes scenario name into j. Unknown names are an error here, unlike
// Resolve, so the CLI can reject typos.
func (m *Manager) Apply(ctx context.Context, j Journal, name string, now time.Time) error {
	s, ok := m.scenarios[name]
	if !ok {
		return fmt.Errorf("unknown seed scenario %q", name)
	}
	if err := s.seed(ctx, j, now); err != nil {
		return fmt.Errorf("seed %s: %w", name, err)
	}
	return nil
}

func seedFirstNight(ctx context.Context, j Journal, now time.Time) error {
	_, err := j.RecordDream(ctx, journal.DreamInput{
		Date:     journal.DateKey(now),
		Title:    "The glass lighthouse",
		Content:  "A lighthouse made of glass, the beam turning into birds.",
		Clarity:  5,
		Lucidity: 2,
		Mood:     "awe",
		Tags:     []string{"light", "sea", "birds"},
	})
	return err
}

func seedWeekStreak(ctx context.Context, j Journal, now time.Time) error {
	for i := 6; i >= 0; i-- {
		day := journal.DateKey(now.AddDate(0, 0, -i))
		if _, err := j.RecordDream(ctx, journal.DreamInput{
			Date:     day,
			Title:    fmt.Sprintf("Night %d", 7-i),
			Content:  "Corridors that fold into each other.",
			Clarity:  3,
			Lucidity: 1 + i%3,
			Tags:     []string{"house"},
		}); err != nil {
			return err
		}
		if _, err := j.LogSleep(ctx, app.SleepInput{Date: day, Hours: 6.5 + float64(i%3)*0.5, Quality: 3}); err != nil {
			return err
		}
	}
	return nil
}

func seedVeteran(ctx context.Context, j Journal, now time.Time) error {
	var recurring []string
	for i := 13; i >= 0; i-- {
		d, err := j.RecordDream(ctx, journal.DreamInput{
			Date:     journal.DateKey(now.AddDate(0, 0, -i)),
			Title:    fmt.Sprintf("Dream %02d", 14-i),
			Content:  "Water rising through an old house.",
			Clarity:  2 + i%4,
			Lucidity: 1 + i%5,
			Tags:     []string{"water", "house"},
		})
		if err != nil {
			return err
		}
		if i%2 == 0 {
			if _, err := j.AnalyzeDream(ctx, d.ID, "Rising water often marks feelings close to the surface."); err != nil {
				return err
			}
		}
		if i%3 == 0 {
			if _, err := j.AttachImage(ctx, d.ID, fmt.Sprintf("https://images.invalid/%s.png", d.ID)); err != nil {
				return err
			}
			recurring = append(recurring, d.ID)
		}
	}
	for _, name := range []string{"brass key", "stopped watch"} {
		if _, err := j.AddTotem(ctx, name, ""); err != nil {
			return err
		}
	}
	for _, term := range []string{"water", "house", "stairs", "key", "bird", "mirror", "door", "teeth", "falling", "flight"} {
		if _, err := j.AddSymbol(ctx, term, ""); err != nil {
			return err
		}
	}
	if _, err := j.StartIncubation(ctx, "find the attic"); err != nil {
		return err
	}
	for _, q := range []string{"What is the house?", "Why the water?", "Who holds the key?", "Where does it lead?", "When will it end?"} {
		if _, err := j.ConsultOracle(ctx, q, "Look closer.", []string{"The Tower", "The Moon", "The Star"}); err != nil {
			return err
		}
	}
	if _, err := j.StartOdyssey(ctx, "The Flooded House", []string{"cellar", "hall", "attic"}); err != nil {
		return err
	}
	_, err := j.CreateSeries(ctx, "The House", recurring...)
	return err
}
