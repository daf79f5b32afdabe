package journal

import "time"

type Dream struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Clarity   int       `json:"clarity"`
	Lucidity  int       `json:"lucidity"`
	Mood      string    `json:"mood,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Analysis  string    `json:"analysis,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	SeriesID  string    `json:"seriesId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DayKey satisfies streak.Dated.
func (d Dream) DayKey() string { return d.Date }

func (d Dream) IsLucid() bool { return d.Lucidity >= LucidThreshold }

func (d Dream) Illustrated() bool { return d.ImageURL != "" || d.VideoURL != "" }

// DreamInput is the caller-supplied part of a new dream.
type DreamInput struct {
	Date     string
	Title    string
	Content  string
	Clarity  int
	Lucidity int
	Mood     string
	Tags     []string
}

// Totem is a personal reality-check object.
type Totem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Symbol is one entry of the personal dream lexicon.
type Symbol struct {
	ID          string    `json:"id"`
	Term        string    `json:"term"`
	Meaning     string    `json:"meaning"`
	Occurrences int       `json:"occurrences"`
	CreatedAt   time.Time `json:"createdAt"`
}

type IncubationSession struct {
	ID          string     `json:"id"`
	Intention   string     `json:"intention"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DreamID     string     `json:"dreamId,omitempty"`
}

func (s IncubationSession) Completed() bool { return s.CompletedAt != nil }

type SleepSession struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	Quality int     `json:"quality"`
	Notes   string  `json:"notes,omitempty"`
}

// DayKey satisfies streak.Dated.
func (s SleepSession) DayKey() string { return s.Date }

// Reading is a saved oracle consultation.
type Reading struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Cards     []string  `json:"cards,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Odyssey is a multi-step guided dream journey.
type Odyssey struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Steps     []string  `json:"steps"`
	Current   int       `json:"current"`
	StartedAt time.Time `json:"startedAt"`
}

func (o Odyssey) Finished() bool { return len(o.Steps) > 0 && o.Current >= len(o.Steps) }

// Series groups recurring dreams under one title.
type Series struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DreamIDs  []string  `json:"dreamIds"`
	CreatedAt time.Time `json:"createdAt"`
}
