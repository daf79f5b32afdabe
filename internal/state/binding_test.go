package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Warn(msg interface{}, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprint(msg))
}

func newScope(t *testing.T, store Store, user string) *Scope {
	t.Helper()
	s, err := NewScope(store, user, nil)
	require.NoError(t, err)
	return s
}

func TestBindUsesDefaultWhenMissing(t *testing.T) {
	ctx := context.Background()
	s := newScope(t, NewMemory(), "alice")
	xp, err := Bind(ctx, s, "userXP", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, xp.Get())

	require.NoError(t, xp.Set(ctx, 25))
	assert.Equal(t, 25, xp.Get())
}

func TestBindingSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store := openSQLite(t, path)
	s := newScope(t, store, "alice")
	dates, err := Bind(ctx, s, "lastQuestDate", "")
	require.NoError(t, err)
	require.NoError(t, dates.Set(ctx, "2026-03-10"))
	require.NoError(t, store.Close())

	store = openSQLite(t, path)
	defer func() { _ = store.Close() }()
	s = newScope(t, store, "alice")
	dates, err = Bind(ctx, s, "lastQuestDate", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", dates.Get())
}

func TestUsersDoNotShareData(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	alice, err := Bind(ctx, newScope(t, store, "alice"), "userXP", 0)
	require.NoError(t, err)
	require.NoError(t, alice.Set(ctx, 90))

	bob, err := Bind(ctx, newScope(t, store, "bob"), "userXP", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, bob.Get())
}

func TestCorruptedValueFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.PutMany(ctx, "alice", []Record{{Key: "unlockedAchievements", Value: []byte(`{not json`), SchemaVersion: 1}}))

	logger := &recordingLogger{}
	s, err := NewScope(store, "alice", logger)
	require.NoError(t, err)
	unlocked, err := Bind(ctx, s, "unlockedAchievements", map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, unlocked.Get())
	assert.Equal(t, []string{"state.decode_failed"}, logger.msgs)
}

func TestNewerSchemaVersionFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.PutMany(ctx, "alice", []Record{{Key: "userXP", Value: []byte(`500`), SchemaVersion: CurrentSchemaVersion + 1}}))

	xp, err := Bind(ctx, newScope(t, store, "alice"), "userXP", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, xp.Get())
}

func TestMigrationUpgradesLegacyRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.PutMany(ctx, "alice", []Record{{Key: "userXP", Value: []byte(`{"xp":75}`), SchemaVersion: 0}}))

	s := newScope(t, store, "alice")
	s.Migrate("userXP", 0, func(raw []byte) ([]byte, error) {
		var legacy struct {
			XP int `json:"xp"`
		}
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, err
		}
		return []byte(fmt.Sprint(legacy.XP)), nil
	})
	xp, err := Bind(ctx, s, "userXP", 0)
	require.NoError(t, err)
	assert.Equal(t, 75, xp.Get())
}

func TestRebindReturnsSameBindingOrRejectsType(t *testing.T) {
	ctx := context.Background()
	s := newScope(t, NewMemory(), "alice")
	a, err := Bind(ctx, s, "userXP", 0)
	require.NoError(t, err)
	b, err := Bind(ctx, s, "userXP", 0)
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = Bind(ctx, s, "userXP", "")
	assert.ErrorIs(t, err, ErrRebind)
}

func TestCommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	s := newScope(t, store, "alice")
	quests, err := Bind(ctx, s, "dailyQuests", []string{})
	require.NoError(t, err)
	date, err := Bind(ctx, s, "lastQuestDate", "")
	require.NoError(t, err)

	require.NoError(t, s.Commit(ctx, quests.Stage([]string{"a", "b"}), date.Stage("2026-03-10")))
	assert.Equal(t, []string{"a", "b"}, quests.Get())
	assert.Equal(t, "2026-03-10", date.Get())

	boom := errors.New("disk full")
	store.FailPuts = func(string, []Record) error { return boom }
	err = s.Commit(ctx, quests.Stage([]string{"c"}), date.Stage("2026-03-11"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, quests.Get(), "memory unchanged after failed commit")
	assert.Equal(t, "2026-03-10", date.Get())

	store.FailPuts = nil
	rec, _, err := store.Get(ctx, "alice", "lastQuestDate")
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-03-10"`, string(rec.Value))
}

func TestCommitRejectsForeignWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	a := newScope(t, store, "alice")
	b := newScope(t, store, "bob")
	xp, err := Bind(ctx, a, "userXP", 0)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Commit(ctx, xp.Stage(5)), ErrForeignWrite)
}

func TestUpdateAppliesFunctionToCurrentValue(t *testing.T) {
	ctx := context.Background()
	xp, err := Bind(ctx, newScope(t, NewMemory(), "alice"), "userXP", 10)
	require.NoError(t, err)
	got, err := xp.Update(ctx, func(prev int) int { return prev + 5 })
	require.NoError(t, err)
	assert.Equal(t, 15, got)
	assert.Equal(t, 15, xp.Get())
}

func TestOnChangeFiresOnlyForRealChanges(t *testing.T) {
	ctx := context.Background()
	xp, err := Bind(ctx, newScope(t, NewMemory(), "alice"), "userXP", 0)
	require.NoError(t, err)
	var seen []int
	xp.OnChange(func(v int) { seen = append(seen, v) })

	require.NoError(t, xp.Set(ctx, 10))
	require.NoError(t, xp.Set(ctx, 10))
	require.NoError(t, xp.Set(ctx, 20))
	assert.Equal(t, []int{10, 20}, seen)
}

func TestInvalidateResyncsFromOtherScope(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	first := newScope(t, store, "alice")
	second := newScope(t, store, "alice")

	xp1, err := Bind(ctx, first, "userXP", 0)
	require.NoError(t, err)
	xp2, err := Bind(ctx, second, "userXP", 0)
	require.NoError(t, err)
	notified := 0
	xp2.OnChange(func(int) { notified++ })

	require.NoError(t, xp1.Set(ctx, 42))
	assert.Equal(t, 0, xp2.Get(), "no implicit refresh")

	require.NoError(t, second.Invalidate(ctx))
	assert.Equal(t, 42, xp2.Get())
	assert.Equal(t, 1, notified)

	// Identical bytes: no state change, no notification.
	require.NoError(t, second.Invalidate(ctx, "userXP"))
	assert.Equal(t, 1, notified)
}

func TestInvalidateNeverWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	s := newScope(t, store, "alice")
	_, err := Bind(ctx, s, "userXP", 0)
	require.NoError(t, err)

	store.FailPuts = func(string, []Record) error {
		t.Fatal("invalidate must not write")
		return nil
	}
	require.NoError(t, s.Invalidate(ctx))
	keys, err := store.Keys(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDumpAndRestore(t *testing.T) {
	ctx := context.Background()
	src := newScope(t, NewMemory(), "alice")
	xp, err := Bind(ctx, src, "userXP", 0)
	require.NoError(t, err)
	require.NoError(t, xp.Set(ctx, 300))
	records, err := src.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	dst := newScope(t, NewMemory(), "alice")
	dstXP, err := Bind(ctx, dst, "userXP", 0)
	require.NoError(t, err)
	require.NoError(t, dst.Restore(ctx, records))
	assert.Equal(t, 300, dstXP.Get())
}
