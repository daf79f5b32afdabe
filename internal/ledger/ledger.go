// Package ledger keeps XP, daily quests and unlocked achievements for one
// user and persists every change atomically.
package ledger

import (
	"context"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"dreamcatcher/internal/actions"
	"dreamcatcher/internal/achievements"
	"dreamcatcher/internal/journal"
	"dreamcatcher/internal/levels"
	"dreamcatcher/internal/quests"
	"dreamcatcher/internal/state"
)

const (
	KeyXP            = "userXP"
	KeyUnlocked      = "unlockedAchievements"
	KeyDailyQuests   = "dailyQuests"
	KeyLastQuestDate = "lastQuestDate"
)

var events = map[Kind]string{
	KindQuest:       "quest.completed",
	KindAchievement: "achievement.unlocked",
	KindLevelUp:     "level.up",
}

type Logger interface {
	Info(msg interface{}, keyvals ...interface{})
}

type Options struct {
	Pool         *quests.Pool
	Achievements []achievements.Definition
	Notifier     Notifier
	Logger       Logger
	Clock        func() time.Time
	Rand         *rand.Rand
	DailyCount   int
}

type Ledger struct {
	mu    sync.Mutex
	scope *state.Scope

	xp       *state.Binding[int]
	unlocked *state.Binding[map[string]string]
	daily    *state.Binding[[]quests.StoredQuest]
	lastDate *state.Binding[string]

	pool       *quests.Pool
	defs       []achievements.Definition
	notifier   Notifier
	log        Logger
	now        func() time.Time
	rng        *rand.Rand
	dailyCount int
}

func New(ctx context.Context, scope *state.Scope, opts Options) (*Ledger, error) {
	l := &Ledger{
		scope:      scope,
		pool:       opts.Pool,
		defs:       opts.Achievements,
		notifier:   opts.Notifier,
		log:        opts.Logger,
		now:        opts.Clock,
		rng:        opts.Rand,
		dailyCount: opts.DailyCount,
	}
	if l.pool == nil {
		l.pool = quests.NewPool(nil)
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.dailyCount <= 0 {
		l.dailyCount = quests.DefaultDailyCount
	}
	var err error
	if l.xp, err = state.Bind(ctx, scope, KeyXP, 0); err != nil {
		return nil, err
	}
	if l.unlocked, err = state.Bind(ctx, scope, KeyUnlocked, map[string]string{}); err != nil {
		return nil, err
	}
	if l.daily, err = state.Bind(ctx, scope, KeyDailyQuests, []quests.StoredQuest{}); err != nil {
		return nil, err
	}
	if l.lastDate, err = state.Bind(ctx, scope, KeyLastQuestDate, ""); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) State() State {
	return State{
		XP:            l.xp.Get(),
		Unlocked:      l.unlocked.Get(),
		Quests:        l.daily.Get(),
		LastQuestDate: l.lastDate.Get(),
	}
}

func (l *Ledger) Level() levels.State { return levels.Compute(l.xp.Get()) }

func (l *Ledger) Pool() *quests.Pool { return l.pool }

func (l *Ledger) Achievements() []achievements.Definition { return l.defs }

// TriggerAction rolls the daily quests if the day changed, awards act and
// completes matching quests. Notifications are delivered after the commit.
func (l *Ledger) TriggerAction(ctx context.Context, act actions.Action) ([]Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	var notes []Notification
	err := l.scope.Transact(ctx, func() ([]state.Write, error) {
		prev := l.State()
		next, _ := ApplyDailyQuests(prev, journal.DateKey(now), l.generate)
		next, notes = ApplyAction(next, act, l.pool, now)
		return l.diff(prev, next), nil
	})
	if err != nil {
		return nil, err
	}
	l.emit(notes)
	return notes, nil
}

// RecheckAchievements unlocks whatever snap now satisfies. Nothing is written
// when nothing unlocks.
func (l *Ledger) RecheckAchievements(ctx context.Context, snap achievements.Snapshot) ([]Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if snap.Now.IsZero() {
		snap.Now = now
	}
	var notes []Notification
	err := l.scope.Transact(ctx, func() ([]state.Write, error) {
		prev := l.State()
		next, n, changed := ApplyUnlocks(prev, l.defs, snap, now)
		if !changed {
			return nil, nil
		}
		notes = n
		return l.diff(prev, next), nil
	})
	if err != nil {
		return nil, err
	}
	l.emit(notes)
	return notes, nil
}

// EnsureDailyQuests regenerates the quest set once per UTC day. The quest
// list and the date key are committed together.
func (l *Ledger) EnsureDailyQuests(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	today := journal.DateKey(l.now())
	changed := false
	err := l.scope.Transact(ctx, func() ([]state.Write, error) {
		prev := l.State()
		next, ok := ApplyDailyQuests(prev, today, l.generate)
		changed = ok
		if !ok {
			return nil, nil
		}
		return l.diff(prev, next), nil
	})
	if err != nil {
		return false, err
	}
	if changed && l.log != nil {
		l.log.Info("quests.generated", "date", today, "count", len(l.daily.Get()))
	}
	return changed, nil
}

func (l *Ledger) generate() []quests.StoredQuest {
	return quests.GenerateDaily(l.pool, l.dailyCount, l.rng)
}

func (l *Ledger) diff(prev, next State) []state.Write {
	var writes []state.Write
	if next.XP != prev.XP {
		writes = append(writes, l.xp.Stage(next.XP))
	}
	if !maps.Equal(next.Unlocked, prev.Unlocked) {
		writes = append(writes, l.unlocked.Stage(next.Unlocked))
	}
	if !slices.Equal(next.Quests, prev.Quests) {
		writes = append(writes, l.daily.Stage(next.Quests))
	}
	if next.LastQuestDate != prev.LastQuestDate {
		writes = append(writes, l.lastDate.Stage(next.LastQuestDate))
	}
	return writes
}

func (l *Ledger) emit(notes []Notification) {
	for _, n := range notes {
		if l.log != nil {
			l.log.Info(events[n.Kind], "id", n.ID, "title", n.Title, "xp", n.XP)
		}
		if l.notifier != nil {
			l.notifier.Notify(n)
		}
	}
}
