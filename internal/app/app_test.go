package app

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"dreamcatcher/internal/actions"
	"dreamcatcher/internal/journal"
	"dreamcatcher/internal/ledger"
	"dreamcatcher/internal/quests"
	"dreamcatcher/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type harness struct {
	app   *App
	store *state.MemoryStore
	clock *clock
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{store: state.NewMemory(), clock: &clock{t: time.Date(2026, time.March, 10, 7, 0, 0, 0, time.UTC)}}
	a, err := NewWithStore(context.Background(), cfg, h.store, nil, WithClock(h.clock.now), WithRand(rand.New(rand.NewPCG(7, 11))))
	require.NoError(t, err)
	h.app = a
	t.Cleanup(func() { _ = a.Close() })
	return h
}

func allQuests() Config {
	cfg := DefaultConfig()
	cfg.DailyQuestCount = 100
	return cfg
}

func notificationIDs(notes []ledger.Notification, kind ledger.Kind) []string {
	var out []string
	for _, n := range notes {
		if n.Kind == kind {
			out = append(out, n.ID)
		}
	}
	return out
}

func TestStartGeneratesDailyQuests(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	views := h.app.DailyQuests()
	assert.Len(t, views, quests.DefaultDailyCount)
	for _, q := range views {
		assert.Equal(t, quests.StatusPending, q.Status)
	}
	assert.Equal(t, 0, h.app.XP())
	assert.Equal(t, 1, h.app.Level().Level)
}

func TestFirstDreamEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, allQuests())
	require.Len(t, h.app.DailyQuests(), 13)

	d, err := h.app.RecordDream(ctx, journal.DreamInput{Title: "Flying over the sea", Clarity: 5, Lucidity: 1})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", d.Date)

	// NEW_DREAM flat award, high_clarity and morning_scribe quests, First Steps.
	assert.Equal(t, 20+30+15+50, h.app.XP())
	assert.Equal(t, 1, h.app.Streaks().Current)
	assert.Equal(t, 2, h.app.Level().Level)

	notes := h.app.DrainNotifications()
	assert.ElementsMatch(t, []string{"high_clarity", "morning_scribe"}, notificationIDs(notes, ledger.KindQuest))
	assert.Equal(t, []string{"first_steps"}, notificationIDs(notes, ledger.KindAchievement))
	assert.Len(t, notificationIDs(notes, ledger.KindLevelUp), 1)
	assert.Empty(t, h.app.DrainNotifications())

	var firstSteps AchievementView
	for _, v := range h.app.Achievements() {
		if v.ID == "first_steps" {
			firstSteps = v
		}
	}
	assert.True(t, firstSteps.Unlocked)
	assert.True(t, h.clock.t.Equal(firstSteps.UnlockedAt))
}

func TestFirstDreamWithRandomQuestSelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	pool, err := quests.Builtin()
	require.NoError(t, err)

	act := actions.NewDream{Clarity: 5, Lucidity: 1}
	questXP := 0
	for _, q := range h.app.DailyQuests() {
		def, _ := pool.Lookup(q.ID)
		if quests.Matches(def, act) {
			questXP += def.XPReward
		}
	}

	_, err = h.app.RecordDream(ctx, journal.DreamInput{Title: "Sea", Clarity: 5, Lucidity: 1})
	require.NoError(t, err)
	assert.Equal(t, actions.FlatXP(actions.TagNewDream)+questXP+50, h.app.XP())
}

func TestQuestCompletesOnlyOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, allQuests())
	_, err := h.app.AddTotem(ctx, "spinning top", "")
	require.NoError(t, err)
	afterFirst := h.app.XP()
	h.app.DrainNotifications()

	_, err = h.app.AddTotem(ctx, "coin", "")
	require.NoError(t, err)
	assert.Equal(t, afterFirst+actions.FlatXP(actions.TagAddTotem), h.app.XP())
	assert.Empty(t, notificationIDs(h.app.DrainNotifications(), ledger.KindQuest))
}

func TestInvalidDreamIsRejected(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, err := h.app.RecordDream(context.Background(), journal.DreamInput{Title: "x", Clarity: 0, Lucidity: 1})
	assert.ErrorIs(t, err, journal.ErrInvalidDream)
	assert.Empty(t, h.app.Dreams())
	assert.Equal(t, 0, h.app.XP())
}

func TestTickWithoutChangesDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	_, err := h.app.RecordDream(ctx, journal.DreamInput{Title: "Sea", Clarity: 3, Lucidity: 3})
	require.NoError(t, err)

	h.store.FailPuts = func(string, []state.Record) error { return errors.New("unexpected write") }
	require.NoError(t, h.app.Tick(ctx))
	require.NoError(t, h.app.Tick(ctx))
}

func TestTickRollsQuestsAtMidnight(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	_, err := h.app.AddSymbol(ctx, "owl", "wisdom")
	require.NoError(t, err)

	h.clock.t = h.clock.t.AddDate(0, 0, 1)
	require.NoError(t, h.app.Tick(ctx))
	for _, q := range h.app.DailyQuests() {
		assert.Equal(t, quests.StatusPending, q.Status)
	}
	assert.Equal(t, "2026-03-11", h.app.ledger.State().LastQuestDate)
}

func TestFailedWriteLeavesJournalUnchanged(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	h.store.FailPuts = func(string, []state.Record) error { return errors.New("disk full") }
	_, err := h.app.RecordDream(ctx, journal.DreamInput{Title: "Sea", Clarity: 3, Lucidity: 3})
	assert.Error(t, err)
	assert.Empty(t, h.app.Dreams())
	assert.Equal(t, 0, h.app.XP())
}

func TestCorruptedCollectionFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemory()
	require.NoError(t, store.PutMany(ctx, "local", []state.Record{
		{Key: KeyDreams, Value: []byte(`{"broken"`), SchemaVersion: 1},
		{Key: KeyTotems, Value: []byte(`[{"id":"t1","name":"coin"}]`), SchemaVersion: 1},
	}))
	a, err := NewWithStore(ctx, DefaultConfig(), store, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	assert.Empty(t, a.Dreams())
	require.Len(t, a.Totems(), 1)
	assert.Equal(t, "coin", a.Totems()[0].Name)
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemory()
	alice := DefaultConfig()
	alice.UserID = "alice"
	a, err := NewWithStore(ctx, alice, store, nil)
	require.NoError(t, err)
	_, err = a.RecordDream(ctx, journal.DreamInput{Title: "Sea", Clarity: 3, Lucidity: 3})
	require.NoError(t, err)

	bob := DefaultConfig()
	bob.UserID = "bob"
	b, err := NewWithStore(ctx, bob, store, nil)
	require.NoError(t, err)
	assert.Empty(t, b.Dreams())
	assert.Equal(t, 0, b.XP())
}

func TestDreamEditsRaiseActions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	d, err := h.app.RecordDream(ctx, journal.DreamInput{Title: "Sea", Clarity: 3, Lucidity: 2})
	require.NoError(t, err)
	before := h.app.XP()

	d, err = h.app.AnalyzeDream(ctx, d.ID, "Water means emotion.")
	require.NoError(t, err)
	assert.Equal(t, "Water means emotion.", d.Analysis)
	d, err = h.app.AttachImage(ctx, d.ID, "https://img.example/sea.png")
	require.NoError(t, err)
	assert.True(t, d.Illustrated())
	assert.GreaterOrEqual(t, h.app.XP(), before+actions.FlatXP(actions.TagAnalyzeDream)+actions.FlatXP(actions.TagGenerateImage))

	d, err = h.app.UpdateDream(ctx, d.ID, journal.DreamInput{Title: "Open sea", Clarity: 4, Lucidity: 4})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", d.Date)
	assert.Equal(t, "Water means emotion.", d.Analysis)
	assert.Contains(t, h.app.ledger.State().Unlocked, "lucid_awakening")

	_, err = h.app.AttachVideo(ctx, "missing", "https://v")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.app.AnalyzeDream(ctx, d.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSeriesFollowDreamDeletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	d1, err := h.app.RecordDream(ctx, journal.DreamInput{Title: "House", Clarity: 3, Lucidity: 2})
	require.NoError(t, err)
	d2, err := h.app.RecordDream(ctx, journal.DreamInput{Title: "House again", Clarity: 3, Lucidity: 2})
	require.NoError(t, err)

	s, err := h.app.CreateSeries(ctx, "The House", d1.ID)
	require.NoError(t, err)
	s, err = h.app.AddToSeries(ctx, s.ID, d2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{d1.ID, d2.ID}, s.DreamIDs)
	got, err := h.app.Dream(d2.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.SeriesID)

	require.NoError(t, h.app.DeleteDream(ctx, d1.ID))
	assert.Equal(t, []string{d2.ID}, h.app.Series()[0].DreamIDs)
	assert.ErrorIs(t, h.app.DeleteDream(ctx, d1.ID), ErrNotFound)
}

func TestSymbolsAndLookup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	_, err := h.app.AddSymbol(ctx, "Serpent", "transformation")
	require.NoError(t, err)
	xp := h.app.XP()

	sym, err := h.app.AddSymbol(ctx, "serpent", "")
	require.NoError(t, err)
	assert.Equal(t, 2, sym.Occurrences)
	assert.Equal(t, "transformation", sym.Meaning)
	assert.Equal(t, xp, h.app.XP(), "repeat terms earn nothing")

	found, ok := h.app.LookupSymbol("serpant")
	assert.True(t, ok)
	assert.Equal(t, "Serpent", found.Term)
	_, ok = h.app.LookupSymbol("volcano")
	assert.False(t, ok)
}

func TestSleepIncubationOdysseyAndReadings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())

	_, err := h.app.LogSleep(ctx, SleepInput{Hours: 7.5, Quality: 4})
	require.NoError(t, err)
	_, err = h.app.LogSleep(ctx, SleepInput{Hours: 30, Quality: 4})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, h.app.SleepStreak().Current)

	inc, err := h.app.StartIncubation(ctx, "meet my grandmother")
	require.NoError(t, err)
	d, err := h.app.RecordDream(ctx, journal.DreamInput{Title: "Kitchen", Clarity: 4, Lucidity: 2})
	require.NoError(t, err)
	inc, err = h.app.CompleteIncubation(ctx, inc.ID, d.ID)
	require.NoError(t, err)
	assert.True(t, inc.Completed())

	o, err := h.app.StartOdyssey(ctx, "Descent", []string{"stairs", "door"})
	require.NoError(t, err)
	o, err = h.app.AdvanceOdyssey(ctx, o.ID)
	require.NoError(t, err)
	o, err = h.app.AdvanceOdyssey(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, o.Finished())
	o, err = h.app.AdvanceOdyssey(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, o.Current)

	r, err := h.app.ConsultOracle(ctx, "What now?", "Wait.", []string{"The Moon", " ", "The Star"})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Moon", "The Star"}, r.Cards)
	_, err = h.app.SaveReading(ctx, "tarot", "", "Change", []string{"Death"})
	require.NoError(t, err)
	assert.Len(t, h.app.Readings(), 2)

	unlocked := h.app.ledger.State().Unlocked
	assert.Contains(t, unlocked, "incubation_initiate")
	assert.Contains(t, unlocked, "odyssey_begun")
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newHarness(t, DefaultConfig())
	_, err := src.app.RecordDream(ctx, journal.DreamInput{Title: "Sea", Clarity: 5, Lucidity: 5})
	require.NoError(t, err)
	_, err = src.app.AddTotem(ctx, "coin", "")
	require.NoError(t, err)

	backup, err := src.app.Export(ctx)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteBackup(&buf, backup))
	restored, err := ReadBackup(&buf)
	require.NoError(t, err)

	dst := newHarness(t, DefaultConfig())
	_, err = dst.app.AddSymbol(ctx, "owl", "")
	require.NoError(t, err)
	require.NoError(t, dst.app.Import(ctx, restored))

	assert.Len(t, dst.app.Dreams(), 1)
	assert.Len(t, dst.app.Totems(), 1)
	assert.Empty(t, dst.app.Symbols(), "import replaces every key")
	assert.Equal(t, src.app.XP(), dst.app.XP(), "imported unlocks are not awarded twice")
	assert.Equal(t, src.app.ledger.State().Unlocked, dst.app.ledger.State().Unlocked)
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	err := h.app.Import(context.Background(), Backup{Version: 99})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResyncPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())
	h.app.DrainNotifications()

	changed, err := h.app.Resync(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	other, err := state.NewScope(h.store, h.app.User(), nil)
	require.NoError(t, err)
	dreams, err := state.Bind(ctx, other, KeyDreams, []journal.Dream{})
	require.NoError(t, err)
	d, err := journal.NewDream(journal.DreamInput{Title: "Written elsewhere", Clarity: 3, Lucidity: 1}, h.clock.now())
	require.NoError(t, err)
	require.NoError(t, dreams.Set(ctx, []journal.Dream{d}))
	assert.Empty(t, h.app.Dreams(), "not visible before resync")

	changed, err = h.app.Resync(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, h.app.Dreams(), 1)
	assert.Equal(t, d.ID, h.app.Dreams()[0].ID)
	assert.Contains(t, notificationIDs(h.app.DrainNotifications(), ledger.KindAchievement), "first_steps")

	changed, err = h.app.Resync(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}
