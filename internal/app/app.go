// Package app is the domain state container: it owns every persisted journal
// collection of one user, raises gamification actions for domain operations
// and keeps achievements in step with the journal.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"dreamcatcher/internal/achievements"
	"dreamcatcher/internal/actions"
	"dreamcatcher/internal/catalog"
	"dreamcatcher/internal/journal"
	"dreamcatcher/internal/ledger"
	"dreamcatcher/internal/levels"
	"dreamcatcher/internal/quests"
	"dreamcatcher/internal/state"
	"dreamcatcher/internal/streak"
	"dreamcatcher/internal/telemetry"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type App struct {
	cfg    Config
	logger *telemetry.Logger
	store  state.Store
	scope  *state.Scope
	ledger *ledger.Ledger
	now    func() time.Time

	mu          sync.Mutex
	dreams      *state.Binding[[]journal.Dream]
	totems      *state.Binding[[]journal.Totem]
	symbols     *state.Binding[[]journal.Symbol]
	incubations *state.Binding[[]journal.IncubationSession]
	sleep       *state.Binding[[]journal.SleepSession]
	readings    *state.Binding[[]journal.Reading]
	odysseys    *state.Binding[[]journal.Odyssey]
	series      *state.Binding[[]journal.Series]
	fingerprint uint64
	changed     atomic.Bool

	inboxMu sync.Mutex
	inbox   []ledger.Notification
}

type Option func(*options)

type options struct {
	clock func() time.Time
	rng   *rand.Rand
}

// WithClock replaces time.Now. Tests pin the day with it.
func WithClock(fn func() time.Time) Option { return func(o *options) { o.clock = fn } }

// WithRand seeds daily quest selection.
func WithRand(r *rand.Rand) Option { return func(o *options) { o.rng = r } }

// New opens the configured store and logger and starts the container.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	logger, err := telemetry.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var store state.Store
	switch cfg.StoreDriver {
	case "memory":
		store = state.NewMemory()
	default:
		sqlite, err := state.NewSQLite(cfg.DBPath())
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		store = sqlite
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	a, err := NewWithStore(ctx, cfg, store, logger, opts...)
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStore builds a container over an already prepared store. The app
// takes ownership of store and logger.
func NewWithStore(ctx context.Context, cfg Config, store state.Store, logger *telemetry.Logger, opts ...Option) (*App, error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = telemetry.Discard()
	}
	if cfg.UserID == "" {
		cfg.UserID = "local"
	}

	pool, defs, err := loadCatalogs(cfg.CatalogDir)
	if err != nil {
		return nil, err
	}
	scope, err := state.NewScope(store, cfg.UserID, logger)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, store: store, scope: scope, now: o.clock}
	if err := a.bindCollections(ctx); err != nil {
		return nil, err
	}
	a.ledger, err = ledger.New(ctx, scope, ledger.Options{
		Pool:         pool,
		Achievements: defs,
		Notifier:     ledger.NotifierFunc(a.notify),
		Logger:       logger,
		Clock:        o.clock,
		Rand:         o.rng,
		DailyCount:   cfg.DailyQuestCount,
	})
	if err != nil {
		return nil, err
	}
	if err := a.Start(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func loadCatalogs(dir string) (*quests.Pool, []achievements.Definition, error) {
	load := catalog.Builtin
	if dir != "" {
		load = func() (catalog.Set, error) { return catalog.LoadDir(dir) }
	}
	set, err := load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := quests.Compile(set.Quests)
	if err != nil {
		return nil, nil, err
	}
	defs, err := achievements.Compile(set.Achievements)
	if err != nil {
		return nil, nil, err
	}
	return pool, defs, nil
}

func (a *App) bindCollections(ctx context.Context) error {
	var err error
	if a.dreams, err = state.Bind(ctx, a.scope, KeyDreams, []journal.Dream{}); err != nil {
		return err
	}
	if a.totems, err = state.Bind(ctx, a.scope, KeyTotems, []journal.Totem{}); err != nil {
		return err
	}
	if a.symbols, err = state.Bind(ctx, a.scope, KeySymbols, []journal.Symbol{}); err != nil {
		return err
	}
	if a.incubations, err = state.Bind(ctx, a.scope, KeyIncubations, []journal.IncubationSession{}); err != nil {
		return err
	}
	if a.sleep, err = state.Bind(ctx, a.scope, KeySleep, []journal.SleepSession{}); err != nil {
		return err
	}
	if a.readings, err = state.Bind(ctx, a.scope, KeyReadings, []journal.Reading{}); err != nil {
		return err
	}
	if a.odysseys, err = state.Bind(ctx, a.scope, KeyOdysseys, []journal.Odyssey{}); err != nil {
		return err
	}
	if a.series, err = state.Bind(ctx, a.scope, KeySeries, []journal.Series{}); err != nil {
		return err
	}
	watch(a.dreams, &a.changed)
	watch(a.totems, &a.changed)
	watch(a.symbols, &a.changed)
	watch(a.incubations, &a.changed)
	watch(a.sleep, &a.changed)
	watch(a.readings, &a.changed)
	watch(a.odysseys, &a.changed)
	watch(a.series, &a.changed)
	return nil
}

// watch raises flag whenever b's stored value changes.
func watch[T any](b *state.Binding[T], flag *atomic.Bool) {
	b.OnChange(func(T) { flag.Store(true) })
}

// Start generates today's quests if needed and runs the initial achievement
// check.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Info("app.start", "user", a.cfg.UserID, "store", a.cfg.StoreDriver)
	if _, err := a.ledger.EnsureDailyQuests(ctx); err != nil {
		return err
	}
	return a.recheck(ctx, true)
}

// Tick is the periodic refresh: roll quests over at UTC midnight and recheck
// achievements if the journal changed underneath.
func (a *App) Tick(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settle(ctx)
}

// Resync re-reads every bound key from the store, picking up writes made by
// another process or scope of the same user. When a journal collection
// changed, achievements are rechecked. It reports whether anything did.
func (a *App) Resync(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.changed.Store(false)
	if err := a.scope.Invalidate(ctx); err != nil {
		return false, err
	}
	if !a.changed.Swap(false) {
		return false, a.settle(ctx)
	}
	a.logger.Info("app.resync", "user", a.cfg.UserID)
	if _, err := a.ledger.EnsureDailyQuests(ctx); err != nil {
		return true, err
	}
	return true, a.recheck(ctx, true)
}

func (a *App) Close() error {
	a.logger.Info("app.stop", "user", a.cfg.UserID)
	err := a.store.Close()
	_ = a.logger.Close()
	return err
}

func (a *App) User() string { return a.cfg.UserID }

// raise runs act through the ledger and rechecks achievements. Callers hold
// a.mu.
func (a *App) raise(ctx context.Context, act actions.Action) error {
	if _, err := a.ledger.TriggerAction(ctx, act); err != nil {
		return fmt.Errorf("trigger %s: %w", act.Tag(), err)
	}
	return a.recheck(ctx, false)
}

// settle covers operations that raise no action.
func (a *App) settle(ctx context.Context) error {
	if _, err := a.ledger.EnsureDailyQuests(ctx); err != nil {
		return err
	}
	return a.recheck(ctx, false)
}

func (a *App) recheck(ctx context.Context, force bool) error {
	snap := a.snapshot()
	fp, err := fingerprintOf(snap)
	if err != nil {
		return err
	}
	if !force && fp == a.fingerprint {
		return nil
	}
	if _, err := a.ledger.RecheckAchievements(ctx, snap); err != nil {
		return err
	}
	if a.fingerprint, err = fingerprintOf(a.snapshot()); err != nil {
		return err
	}
	return nil
}

type snapshotFingerprint struct {
	Dreams      []string
	Totems      int
	Symbols     int
	Incubations int
	Sleep       int
	Readings    int
	Odysseys    int
	Series      int
	XP          int
	Day         string
}

// fingerprintOf hashes the parts of snap that achievement rules read.
func fingerprintOf(snap achievements.Snapshot) (uint64, error) {
	fp := snapshotFingerprint{
		Dreams:      make([]string, 0, len(snap.Dreams)),
		Totems:      len(snap.Totems),
		Symbols:     len(snap.Symbols),
		Incubations: len(snap.Incubations),
		Sleep:       len(snap.SleepSessions),
		Readings:    len(snap.Readings),
		Odysseys:    len(snap.Odysseys),
		Series:      len(snap.Series),
		XP:          snap.XP,
		Day:         journal.DateKey(snap.Now),
	}
	for _, d := range snap.Dreams {
		fp.Dreams = append(fp.Dreams, fmt.Sprintf("%s|%s|%d|%t|%t", d.ID, d.Date, d.Lucidity, d.Illustrated(), d.Analysis != ""))
	}
	return hashstructure.Hash(fp, hashstructure.FormatV2, nil)
}

func (a *App) notify(n ledger.Notification) {
	a.inboxMu.Lock()
	defer a.inboxMu.Unlock()
	a.inbox = append(a.inbox, n)
}

// DrainNotifications returns pending notifications in emission order and
// clears the inbox.
func (a *App) DrainNotifications() []ledger.Notification {
	a.inboxMu.Lock()
	defer a.inboxMu.Unlock()
	out := a.inbox
	a.inbox = nil
	return out
}

func (a *App) snapshot() achievements.Snapshot {
	return achievements.Snapshot{
		Dreams:        a.dreams.Get(),
		Totems:        a.totems.Get(),
		Symbols:       a.symbols.Get(),
		Incubations:   a.incubations.Get(),
		SleepSessions: a.sleep.Get(),
		Readings:      a.readings.Get(),
		Odysseys:      a.odysseys.Get(),
		Series:        a.series.Get(),
		XP:            a.ledger.State().XP,
		Now:           a.now(),
	}
}

// Snapshot returns the live aggregate the achievement rules see.
func (a *App) Snapshot() achievements.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

func (a *App) XP() int { return a.ledger.State().XP }

func (a *App) Level() levels.State { return a.ledger.Level() }

// Streaks reports the dream-journal streak.
func (a *App) Streaks() streak.State { return streak.Compute(a.dreams.Get(), a.now()) }

func (a *App) SleepStreak() streak.State { return streak.Compute(a.sleep.Get(), a.now()) }

// DailyQuests joins today's stored quests with their definitions. Quests
// whose definition left the catalog are skipped.
func (a *App) DailyQuests() []QuestView {
	pool := a.ledger.Pool()
	stored := a.ledger.State().Quests
	out := make([]QuestView, 0, len(stored))
	for _, q := range stored {
		def, ok := pool.Lookup(q.ID)
		if !ok {
			continue
		}
		out = append(out, QuestView{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			XPReward:    def.XPReward,
			Status:      q.Status,
		})
	}
	return out
}

// Achievements lists the whole catalog in order with unlock times.
func (a *App) Achievements() []AchievementView {
	unlocked := a.ledger.State().Unlocked
	defs := a.ledger.Achievements()
	out := make([]AchievementView, 0, len(defs))
	for _, def := range defs {
		v := AchievementView{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			XPReward:    def.XPReward,
		}
		if stamp, ok := unlocked[def.ID]; ok {
			v.Unlocked = true
			if t, err := time.Parse(time.RFC3339, stamp); err == nil {
				v.UnlockedAt = t
			}
		}
		out = append(out, v)
	}
	return out
}

func (a *App) Status() Status {
	views := a.Achievements()
	unlocked := 0
	for _, v := range views {
		if v.Unlocked {
			unlocked++
		}
	}
	return Status{
		User:         a.cfg.UserID,
		XP:           a.XP(),
		Level:        a.Level(),
		DreamStreak:  a.Streaks(),
		SleepStreak:  a.SleepStreak(),
		Dreams:       len(a.dreams.Get()),
		Quests:       a.DailyQuests(),
		Unlocked:     unlocked,
		Achievements: len(views),
	}
}

// Dreams returns the journal sorted by date, newest first.
func (a *App) Dreams() []journal.Dream {
	out := append([]journal.Dream(nil), a.dreams.Get()...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (a *App) Totems() []journal.Totem { return a.totems.Get() }

func (a *App) Symbols() []journal.Symbol { return a.symbols.Get() }

func (a *App) Incubations() []journal.IncubationSession { return a.incubations.Get() }

func (a *App) SleepSessions() []journal.SleepSession { return a.sleep.Get() }

func (a *App) Readings() []journal.Reading { return a.readings.Get() }

func (a *App) Odysseys() []journal.Odyssey { return a.odysseys.Get() }

func (a *App) Series() []journal.Series { return a.series.Get() }
