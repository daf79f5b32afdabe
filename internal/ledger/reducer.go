package ledger

import (
	"cmp"
	"slices"
	"time"

	"dreamcatcher/internal/actions"
	"dreamcatcher/internal/achievements"
	"dreamcatcher/internal/quests"
)

// State is the persisted gamification ledger of one user. Reducers treat it
// as immutable and return copies of the parts they change.
type State struct {
	XP            int                  `json:"xp"`
	Unlocked      map[string]string    `json:"unlocked"`
	Quests        []quests.StoredQuest `json:"quests"`
	LastQuestDate string               `json:"lastQuestDate"`
}

// ApplyAction awards the action's flat XP, then completes every pending
// quest whose predicate matches. Quest notifications follow catalog order,
// whatever order the daily list was drawn in.
func ApplyAction(prev State, act actions.Action, pool *quests.Pool, now time.Time) (State, []Notification) {
	if act == nil {
		return prev, nil
	}
	next := prev
	next.XP += actions.FlatXP(act.Tag())

	var done []quests.Definition
	copied := false
	for i, q := range prev.Quests {
		if !q.Pending() || pool == nil {
			continue
		}
		def, ok := pool.Lookup(q.ID)
		if !ok || !quests.Matches(def, act) {
			continue
		}
		if !copied {
			next.Quests = append([]quests.StoredQuest(nil), prev.Quests...)
			copied = true
		}
		next.Quests[i].Status = quests.StatusCompleted
		next.XP += def.XPReward
		done = append(done, def)
	}
	slices.SortStableFunc(done, func(a, b quests.Definition) int {
		return cmp.Compare(pool.Index(a.ID), pool.Index(b.ID))
	})
	notes := make([]Notification, 0, len(done))
	for _, def := range done {
		notes = append(notes, questCompleted(def, now))
	}
	notes = append(notes, levelUps(prev.XP, next.XP, now)...)
	if len(notes) == 0 {
		notes = nil
	}
	return next, notes
}

// ApplyUnlocks runs the achievement checker until no further achievement
// unlocks, so XP granted by one unlock can satisfy a level-based one. The
// bool reports whether anything changed.
func ApplyUnlocks(prev State, defs []achievements.Definition, snap achievements.Snapshot, now time.Time) (State, []Notification, bool) {
	next := prev
	var notes []Notification
	for range len(defs) + 1 {
		snap.XP = next.XP
		fresh, updated := achievements.Check(defs, snap, next.Unlocked, now)
		if len(fresh) == 0 {
			break
		}
		next.Unlocked = updated
		for _, def := range fresh {
			next.XP += def.XPReward
			notes = append(notes, achievementUnlocked(def, now))
		}
	}
	if len(notes) == 0 {
		return prev, nil, false
	}
	notes = append(notes, levelUps(prev.XP, next.XP, now)...)
	return next, notes, true
}

// ApplyDailyQuests replaces the quest set when today differs from the last
// generation day.
func ApplyDailyQuests(prev State, today string, gen func() []quests.StoredQuest) (State, bool) {
	list, key, changed := quests.Regenerate(prev.Quests, prev.LastQuestDate, today, gen)
	if !changed {
		return prev, false
	}
	next := prev
	next.Quests = list
	next.LastQuestDate = key
	return next, true
}
