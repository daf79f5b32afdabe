package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"dreamcatcher/internal/app"
	"dreamcatcher/internal/journal"
	"dreamcatcher/internal/ledger"
	"dreamcatcher/internal/levels"
	"dreamcatcher/internal/quests"
)

const progressWidth = 20

func renderNotifications(w io.Writer, ns []ledger.Notification) {
	for _, n := range ns {
		head := styles.Info.Render(n.Title)
		switch n.Severity {
		case ledger.SeverityAchievement:
			head = styles.Pending.Bold(true).Render(n.Title)
		case ledger.SeveritySuccess:
			head = styles.Pass.Render(n.Title)
		}
		body := head + "\n" + n.Message
		if n.XP > 0 {
			body += " " + styles.Muted.Render(fmt.Sprintf("(+%s XP)", humanize.Comma(int64(n.XP))))
		}
		fmt.Fprintln(w, styles.Toast.Render(body))
	}
}

func renderStatus(w io.Writer, s app.Status) {
	lines := []string{
		styles.Title.Render("Dreamcatcher") + styles.Muted.Render("  "+s.User),
		fmt.Sprintf("Level %d  %s  %s XP", s.Level.Level, progressBar(s.Level), humanize.Comma(int64(s.XP))),
		fmt.Sprintf("Dream streak %d (best %d)  Sleep streak %d (best %d)",
			s.DreamStreak.Current, s.DreamStreak.Longest, s.SleepStreak.Current, s.SleepStreak.Longest),
		fmt.Sprintf("%s dreams recorded  %d/%d achievements", humanize.Comma(int64(s.Dreams)), s.Unlocked, s.Achievements),
	}
	if len(s.Quests) > 0 {
		lines = append(lines, "", styles.Accent.Render("Daily quests"))
		for _, q := range s.Quests {
			lines = append(lines, questLine(q))
		}
	}
	fmt.Fprintln(w, styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func progressBar(l levels.State) string {
	filled := l.Progress * progressWidth / 100
	bar := styles.Pass.Render(strings.Repeat("█", filled)) + styles.Muted.Render(strings.Repeat("░", progressWidth-filled))
	if l.MaxLevel {
		return bar + styles.Pending.Render(" max")
	}
	return bar + styles.Muted.Render(fmt.Sprintf(" %d%%", l.Progress))
}

func questLine(q app.QuestView) string {
	mark := styles.Pending.Render("○")
	if q.Status == quests.StatusCompleted {
		mark = styles.Pass.Render("●")
	}
	return fmt.Sprintf("%s %s %s", mark, q.Title, styles.Muted.Render(fmt.Sprintf("+%d XP", q.XPReward)))
}

func renderQuests(w io.Writer, qs []app.QuestView) {
	if len(qs) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("no quests today"))
		return
	}
	for _, q := range qs {
		fmt.Fprintln(w, questLine(q))
		if q.Description != "" {
			fmt.Fprintln(w, "  "+styles.Muted.Render(q.Description))
		}
	}
}

func renderAchievements(w io.Writer, views []app.AchievementView) {
	for _, v := range views {
		if !v.Unlocked {
			fmt.Fprintf(w, "%s %s %s\n", styles.Muted.Render("·"), styles.Muted.Render(v.Name), styles.Muted.Render(v.Description))
			continue
		}
		when := ""
		if !v.UnlockedAt.IsZero() {
			when = styles.Muted.Render(humanize.Time(v.UnlockedAt))
		}
		fmt.Fprintf(w, "%s %s %s %s\n", v.Icon, styles.Pass.Render(v.Name), v.Description, when)
	}
}

func renderDreams(w io.Writer, dreams []journal.Dream) {
	if len(dreams) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("the journal is empty"))
		return
	}
	for _, d := range dreams {
		title := d.Title
		if d.IsLucid() {
			title = styles.Accent.Render(title)
		}
		fmt.Fprintf(w, "%s  %s  %s\n", styles.Muted.Render(d.Date), title, styles.Muted.Render(d.ID))
		if len(d.Tags) > 0 {
			fmt.Fprintln(w, "  "+styles.Info.Render("#"+strings.Join(d.Tags, " #")))
		}
	}
}
