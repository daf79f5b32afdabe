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

// RecordDream validates and stores a new dream, then raises NEW_DREAM.
func (a *App) RecordDream(ctx context.Context, in journal.DreamInput) (journal.Dream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, err := journal.NewDream(in, a.now())
	if err != nil {
		return journal.Dream{}, err
	}
	if _, err := a.dreams.Update(ctx, func(prev []journal.Dream) []journal.Dream {
		return append(slices.Clone(prev), d)
	}); err != nil {
		return journal.Dream{}, err
	}
	a.logger.Info("dream.recorded", "id", d.ID, "date", d.Date, "clarity", d.Clarity, "lucidity", d.Lucidity)
	err = a.raise(ctx, actions.NewDream{DreamID: d.ID, Clarity: d.Clarity, Lucidity: d.Lucidity, Tags: d.Tags})
	return d, err
}

// UpdateDream replaces the editable fields of dream id. An empty date keeps
// the current one.
func (a *App) UpdateDream(ctx context.Context, id string, in journal.DreamInput) (journal.Dream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	updated, err := a.editDream(ctx, id, func(d *journal.Dream) error {
		patch, err := journal.NewDream(in, d.CreatedAt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(in.Date) == "" {
			patch.Date = d.Date
		}
		d.Date, d.Title, d.Content = patch.Date, patch.Title, patch.Content
		d.Clarity, d.Lucidity, d.Mood, d.Tags = patch.Clarity, patch.Lucidity, patch.Mood, patch.Tags
		return nil
	})
	if err != nil {
		return journal.Dream{}, err
	}
	return updated, a.settle(ctx)
}

func (a *App) DeleteDream(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	dreams := a.dreams.Get()
	idx := indexOfDream(dreams, id)
	if idx < 0 {
		return fmt.Errorf("dream %s: %w", id, ErrNotFound)
	}
	next := slices.Delete(slices.Clone(dreams), idx, idx+1)

	writes := []state.Write{a.dreams.Stage(next)}
	if series, changed := detachFromSeries(a.series.Get(), id); changed {
		writes = append(writes, a.series.Stage(series))
	}
	if err := a.scope.Commit(ctx, writes...); err != nil {
		return err
	}
	a.logger.Info("dream.deleted", "id", id)
	return a.settle(ctx)
}

// AnalyzeDream stores an interpretation produced outside the engine.
func (a *App) AnalyzeDream(ctx context.Context, id, analysis string) (journal.Dream, error) {
	return a.enrichDream(ctx, id, func(d *journal.Dream) error {
		if strings.TrimSpace(analysis) == "" {
			return fmt.Errorf("%w: analysis is empty", ErrInvalidInput)
		}
		d.Analysis = strings.TrimSpace(analysis)
		return nil
	}, func(d journal.Dream) actions.Action { return actions.AnalyzeDream{DreamID: d.ID} })
}

func (a *App) AttachImage(ctx context.Context, id, url string) (journal.Dream, error) {
	return a.enrichDream(ctx, id, func(d *journal.Dream) error {
		if strings.TrimSpace(url) == "" {
			return fmt.Errorf("%w: image url is empty", ErrInvalidInput)
		}
		d.ImageURL = strings.TrimSpace(url)
		return nil
	}, func(d journal.Dream) actions.Action { return actions.GenerateImage{DreamID: d.ID} })
}

func (a *App) AttachVideo(ctx context.Context, id, url string) (journal.Dream, error) {
	return a.enrichDream(ctx, id, func(d *journal.Dream) error {
		if strings.TrimSpace(url) == "" {
			return fmt.Errorf("%w: video url is empty", ErrInvalidInput)
		}
		d.VideoURL = strings.TrimSpace(url)
		return nil
	}, func(d journal.Dream) actions.Action { return actions.GenerateVideo{DreamID: d.ID} })
}

func (a *App) enrichDream(ctx context.Context, id string, edit func(*journal.Dream) error, act func(journal.Dream) actions.Action) (journal.Dream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, err := a.editDream(ctx, id, edit)
	if err != nil {
		return journal.Dream{}, err
	}
	return d, a.raise(ctx, act(d))
}

// editDream applies edit to a copy of dream id and persists it. Callers hold
// a.mu.
func (a *App) editDream(ctx context.Context, id string, edit func(*journal.Dream) error) (journal.Dream, error) {
	dreams := a.dreams.Get()
	idx := indexOfDream(dreams, id)
	if idx < 0 {
		return journal.Dream{}, fmt.Errorf("dream %s: %w", id, ErrNotFound)
	}
	next := slices.Clone(dreams)
	d := next[idx]
	if err := edit(&d); err != nil {
		return journal.Dream{}, err
	}
	if err := journal.ValidateDream(d); err != nil {
		return journal.Dream{}, err
	}
	next[idx] = d
	if err := a.dreams.Set(ctx, next); err != nil {
		return journal.Dream{}, err
	}
	return d, nil
}

func (a *App) Dream(id string) (journal.Dream, error) {
	dreams := a.dreams.Get()
	if idx := indexOfDream(dreams, id); idx >= 0 {
		return dreams[idx], nil
	}
	return journal.Dream{}, fmt.Errorf("dream %s: %w", id, ErrNotFound)
}

func indexOfDream(dreams []journal.Dream, id string) int {
	return slices.IndexFunc(dreams, func(d journal.Dream) bool { return d.ID == id })
}

func detachFromSeries(series []journal.Series, dreamID string) ([]journal.Series, bool) {
	changed := false
	out := make([]journal.Series, len(series))
	for i, s := range series {
		out[i] = s
		if idx := slices.Index(s.DreamIDs, dreamID); idx >= 0 {
			out[i].DreamIDs = slices.Delete(slices.Clone(s.DreamIDs), idx, idx+1)
			changed = true
		}
	}
	return out, changed
}
