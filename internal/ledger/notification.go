package ledger

import (
	"fmt"
	"time"

	"dreamcatcher/internal/achievements"
	"dreamcatcher/internal/levels"
	"dreamcatcher/internal/quests"
)

type Kind string

const (
	KindQuest       Kind = "quest"
	KindAchievement Kind = "achievement"
	KindLevelUp     Kind = "level_up"
)

// Severity separates reward announcements from plain info and success
// messages.
type Severity string

const (
	SeverityAchievement Severity = "achievement"
	SeveritySuccess     Severity = "success"
	SeverityInfo        Severity = "info"
)

type Notification struct {
	Kind     Kind      `json:"kind"`
	Severity Severity  `json:"severity"`
	ID       string    `json:"id,omitempty"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	XP       int       `json:"xp"`
	At       time.Time `json:"at"`
}

type Notifier interface {
	Notify(Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

func questCompleted(def quests.Definition, now time.Time) Notification {
	return Notification{
		Kind:     KindQuest,
		Severity: SeverityAchievement,
		ID:       def.ID,
		Title:    def.Title,
		Message:  fmt.Sprintf("Quest complete: %s (+%d XP)", def.Title, def.XPReward),
		XP:       def.XPReward,
		At:       now,
	}
}

func achievementUnlocked(def achievements.Definition, now time.Time) Notification {
	return Notification{
		Kind:     KindAchievement,
		Severity: SeverityAchievement,
		ID:       def.ID,
		Title:    def.Name,
		Message:  fmt.Sprintf("Achievement unlocked: %s (+%d XP)", def.Name, def.XPReward),
		XP:       def.XPReward,
		At:       now,
	}
}

func levelUps(before, after int, now time.Time) []Notification {
	from, to := levels.Compute(before).Level, levels.Compute(after).Level
	var out []Notification
	for lvl := from + 1; lvl <= to; lvl++ {
		out = append(out, Notification{
			Kind:     KindLevelUp,
			Severity: SeveritySuccess,
			Title:    fmt.Sprintf("Level %d", lvl),
			Message:  fmt.Sprintf("You reached level %d", lvl),
			At:       now,
		})
	}
	return out
}
