package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"dreamcatcher/internal/actions"
	"dreamcatcher/internal/journal"
	"dreamcatcher/internal/state"
)

// symbolMatchDistance is the edit distance LookupSymbol tolerates.
const symbolMatchDistance = 2

const readingOracle = "oracle"

func (a *App) AddTotem(ctx context.Context, name, description string) (journal.Totem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return journal.Totem{}, fmt.Errorf("%w: totem name is empty", ErrInvalidInput)
	}
	t := journal.Totem{ID: journal.NewID(), Name: name, Description: strings.TrimSpace(description), CreatedAt: a.now().UTC()}
	if err := appendTo(ctx, a.totems, t); err != nil {
		return journal.Totem{}, err
	}
	a.logger.Info("totem.added", "id", t.ID, "name", t.Name)
	return t, a.raise(ctx, actions.AddTotem{Name: t.Name})
}

// AddSymbol adds term to the lexicon. A term already present (ignoring case)
// gains an occurrence and, if given, a new meaning; only new terms raise
// ADD_SYMBOL.
func (a *App) AddSymbol(ctx context.Context, term, meaning string) (journal.Symbol, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	term = strings.TrimSpace(term)
	if term == "" {
		return journal.Symbol{}, fmt.Errorf("%w: symbol term is empty", ErrInvalidInput)
	}
	symbols := a.symbols.Get()
	if idx := slices.IndexFunc(symbols, func(s journal.Symbol) bool { return strings.EqualFold(s.Term, term) }); idx >= 0 {
		next := slices.Clone(symbols)
		next[idx].Occurrences++
		if m := strings.TrimSpace(meaning); m != "" {
			next[idx].Meaning = m
		}
		if err := a.symbols.Set(ctx, next); err != nil {
			return journal.Symbol{}, err
		}
		return next[idx], a.settle(ctx)
	}

	sym := journal.Symbol{ID: journal.NewID(), Term: term, Meaning: strings.TrimSpace(meaning), Occurrences: 1, CreatedAt: a.now().UTC()}
	if err := appendTo(ctx, a.symbols, sym); err != nil {
		return journal.Symbol{}, err
	}
	a.logger.Info("symbol.added", "id", sym.ID, "term", sym.Term)
	return sym, a.raise(ctx, actions.AddSymbol{Term: sym.Term})
}

// LookupSymbol finds the closest lexicon entry to term.
func (a *App) LookupSymbol(term string) (journal.Symbol, bool) {
	return journal.Lexicon(a.symbols.Get()).Lookup(term, symbolMatchDistance)
}

func (a *App) StartIncubation(ctx context.Context, intention string) (journal.IncubationSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	intention = strings.TrimSpace(intention)
	if intention == "" {
		return journal.IncubationSession{}, fmt.Errorf("%w: intention is empty", ErrInvalidInput)
	}
	s := journal.IncubationSession{ID: journal.NewID(), Intention: intention, StartedAt: a.now().UTC()}
	if err := appendTo(ctx, a.incubations, s); err != nil {
		return journal.IncubationSession{}, err
	}
	return s, a.raise(ctx, actions.StartIncubation{Intention: intention})
}

// CompleteIncubation closes session id, optionally linking the resulting
// dream.
func (a *App) CompleteIncubation(ctx context.Context, id, dreamID string) (journal.IncubationSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if dreamID != "" && indexOfDream(a.dreams.Get(), dreamID) < 0 {
		return journal.IncubationSession{}, fmt.Errorf("dream %s: %w", dreamID, ErrNotFound)
	}
	sessions := a.incubations.Get()
	idx := slices.IndexFunc(sessions, func(s journal.IncubationSession) bool { return s.ID == id })
	if idx < 0 {
		return journal.IncubationSession{}, fmt.Errorf("incubation %s: %w", id, ErrNotFound)
	}
	if sessions[idx].Completed() {
		return sessions[idx], nil
	}
	next := slices.Clone(sessions)
	done := a.now().UTC()
	next[idx].CompletedAt = &done
	next[idx].DreamID = dreamID
	if err := a.incubations.Set(ctx, next); err != nil {
		return journal.IncubationSession{}, err
	}
	return next[idx], a.settle(ctx)
}

type SleepInput struct {
	Date    string
	Hours   float64
	Quality int
	Notes   string
}

func (a *App) LogSleep(ctx context.Context, in SleepInput) (journal.SleepSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := journal.SleepSession{
		ID:      journal.NewID(),
		Date:    strings.TrimSpace(in.Date),
		Hours:   in.Hours,
		Quality: in.Quality,
		Notes:   strings.TrimSpace(in.Notes),
	}
	if s.Date == "" {
		s.Date = journal.DateKey(a.now())
	}
	switch {
	case !journal.ValidDateKey(s.Date):
		return journal.SleepSession{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, s.Date)
	case s.Hours <= 0 || s.Hours > 24:
		return journal.SleepSession{}, fmt.Errorf("%w: sleep hours %.1f outside 0..24", ErrInvalidInput, s.Hours)
	case s.Quality < journal.MinRating || s.Quality > journal.MaxRating:
		return journal.SleepSession{}, fmt.Errorf("%w: sleep quality %d outside %d..%d", ErrInvalidInput, s.Quality, journal.MinRating, journal.MaxRating)
	}
	if err := appendTo(ctx, a.sleep, s); err != nil {
		return journal.SleepSession{}, err
	}
	return s, a.raise(ctx, actions.LogSleep{Hours: s.Hours, Quality: s.Quality})
}

// ConsultOracle records an oracle answer produced outside the engine as a
// saved reading and raises CONSULT_ORACLE.
func (a *App) ConsultOracle(ctx context.Context, question, answer string, cards []string) (journal.Reading, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, err := a.saveReading(ctx, readingOracle, question, answer, cards)
	if err != nil {
		return journal.Reading{}, err
	}
	return r, a.raise(ctx, actions.ConsultOracle{Question: r.Question, Cards: len(r.Cards)})
}

func (a *App) SaveReading(ctx context.Context, kind, question, answer string, cards []string) (journal.Reading, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return journal.Reading{}, fmt.Errorf("%w: reading kind is empty", ErrInvalidInput)
	}
	r, err := a.saveReading(ctx, kind, question, answer, cards)
	if err != nil {
		return journal.Reading{}, err
	}
	return r, a.raise(ctx, actions.SaveReading{Kind: r.Kind, Cards: len(r.Cards)})
}

func (a *App) saveReading(ctx context.Context, kind, question, answer string, cards []string) (journal.Reading, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return journal.Reading{}, fmt.Errorf("%w: reading answer is empty", ErrInvalidInput)
	}
	clean := make([]string, 0, len(cards))
	for _, c := range cards {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	r := journal.Reading{
		ID:        journal.NewID(),
		Kind:      kind,
		Question:  strings.TrimSpace(question),
		Answer:    answer,
		Cards:     clean,
		CreatedAt: a.now().UTC(),
	}
	if err := appendTo(ctx, a.readings, r); err != nil {
		return journal.Reading{}, err
	}
	a.logger.Info("reading.saved", "id", r.ID, "kind", r.Kind, "cards", len(r.Cards))
	return r, nil
}

func (a *App) StartOdyssey(ctx context.Context, title string, steps []string) (journal.Odyssey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	title = strings.TrimSpace(title)
	if title == "" || len(steps) == 0 {
		return journal.Odyssey{}, fmt.Errorf("%w: odyssey needs a title and at least one step", ErrInvalidInput)
	}
	o := journal.Odyssey{ID: journal.NewID(), Title: title, Steps: slices.Clone(steps), StartedAt: a.now().UTC()}
	if err := appendTo(ctx, a.odysseys, o); err != nil {
		return journal.Odyssey{}, err
	}
	return o, a.raise(ctx, actions.StartOdyssey{Title: title})
}

// AdvanceOdyssey moves odyssey id to its next step. Finished odysseys stay
// put.
func (a *App) AdvanceOdyssey(ctx context.Context, id string) (journal.Odyssey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	all := a.odysseys.Get()
	idx := slices.IndexFunc(all, func(o journal.Odyssey) bool { return o.ID == id })
	if idx < 0 {
		return journal.Odyssey{}, fmt.Errorf("odyssey %s: %w", id, ErrNotFound)
	}
	if all[idx].Finished() {
		return all[idx], nil
	}
	next := slices.Clone(all)
	next[idx].Current++
	if err := a.odysseys.Set(ctx, next); err != nil {
		return journal.Odyssey{}, err
	}
	return next[idx], a.settle(ctx)
}

// CreateSeries groups dreamIDs under title. Dreams and the series are
// committed together.
func (a *App) CreateSeries(ctx context.Context, title string, dreamIDs ...string) (journal.Series, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	title = strings.TrimSpace(title)
	if title == "" {
		return journal.Series{}, fmt.Errorf("%w: series title is empty", ErrInvalidInput)
	}
	s := journal.Series{ID: journal.NewID(), Title: title, DreamIDs: []string{}, CreatedAt: a.now().UTC()}
	dreams := slices.Clone(a.dreams.Get())
	for _, id := range dreamIDs {
		idx := indexOfDream(dreams, id)
		if idx < 0 {
			return journal.Series{}, fmt.Errorf("dream %s: %w", id, ErrNotFound)
		}
		if !slices.Contains(s.DreamIDs, id) {
			s.DreamIDs = append(s.DreamIDs, id)
		}
		dreams[idx].SeriesID = s.ID
	}
	series := append(slices.Clone(a.series.Get()), s)
	if err := a.scope.Commit(ctx, a.series.Stage(series), a.dreams.Stage(dreams)); err != nil {
		return journal.Series{}, err
	}
	return s, a.raise(ctx, actions.CreateSeries{Title: title})
}

func (a *App) AddToSeries(ctx context.Context, seriesID, dreamID string) (journal.Series, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	all := a.series.Get()
	sIdx := slices.IndexFunc(all, func(s journal.Series) bool { return s.ID == seriesID })
	if sIdx < 0 {
		return journal.Series{}, fmt.Errorf("series %s: %w", seriesID, ErrNotFound)
	}
	dreams := slices.Clone(a.dreams.Get())
	dIdx := indexOfDream(dreams, dreamID)
	if dIdx < 0 {
		return journal.Series{}, fmt.Errorf("dream %s: %w", dreamID, ErrNotFound)
	}
	if slices.Contains(all[sIdx].DreamIDs, dreamID) {
		return all[sIdx], nil
	}

	series, _ := detachFromSeries(all, dreamID)
	series[sIdx].DreamIDs = append(slices.Clone(series[sIdx].DreamIDs), dreamID)
	dreams[dIdx].SeriesID = seriesID
	if err := a.scope.Commit(ctx, a.series.Stage(series), a.dreams.Stage(dreams)); err != nil {
		return journal.Series{}, err
	}
	return series[sIdx], a.settle(ctx)
}

func appendTo[T any](ctx context.Context, b *state.Binding[[]T], v T) error {
	_, err := b.Update(ctx, func(prev []T) []T { return append(slices.Clone(prev), v) })
	return err
}
