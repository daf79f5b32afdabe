package app

import (
	"encoding/json"
	"time"

	"dreamcatcher/internal/levels"
	"dreamcatcher/internal/quests"
	"dreamcatcher/internal/streak"
)

// Persisted key layout of one user scope.
const (
	KeyDreams      = "dreams"
	KeyTotems      = "totems"
	KeySymbols     = "symbolLexicon"
	KeyIncubations = "incubationSessions"
	KeySleep       = "sleepSessions"
	KeyReadings    = "savedReadings"
	KeyOdysseys    = "odysseys"
	KeySeries      = "dreamSeries"
)

type QuestView struct {
	ID          string
	Title       string
	Description string
	XPReward    int
	Status      quests.Status
}

type AchievementView struct {
	ID          string
	Name        string
	Description string
	Icon        string
	XPReward    int
	Unlocked    bool
	UnlockedAt  time.Time
}

type Status struct {
	User         string
	XP           int
	Level        levels.State
	DreamStreak  streak.State
	SleepStreak  streak.State
	Dreams       int
	Quests       []QuestView
	Unlocked     int
	Achievements int
}

// BackupVersion is the format version of exported backups.
const BackupVersion = 1

type Backup struct {
	Version    int            `json:"version"`
	User       string         `json:"user"`
	ExportedAt time.Time      `json:"exportedAt"`
	Records    []BackupRecord `json:"records"`
}

type BackupRecord struct {
	Key           string          `json:"key"`
	SchemaVersion int             `json:"schemaVersion"`
	Value         json.RawMessage `json:"value"`
}
