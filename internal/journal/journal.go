// Package journal holds the persisted dream-journal entities.
package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

const (
	DayLayout      = "2006-01-02"
	MinRating      = 1
	MaxRating      = 5
	LucidThreshold = 4
)

var ErrInvalidDream = errors.New("invalid dream")

func NewID() string { return uuid.NewString() }

// DateKey formats t as a UTC day key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ValidDateKey reports whether s is a YYYY-MM-DD calendar day.
func ValidDateKey(s string) bool {
	_, err := time.ParseInLocation(DayLayout, s, time.UTC)
	return err == nil
}

// NewDream validates in and builds a dream stamped at now. An empty date
// defaults to the UTC day of now.
func NewDream(in DreamInput, now time.Time) (Dream, error) {
	d := Dream{
		ID:        NewID(),
		Date:      strings.TrimSpace(in.Date),
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Clarity:   in.Clarity,
		Lucidity:  in.Lucidity,
		Mood:      strings.TrimSpace(in.Mood),
		Tags:      normalizeTags(in.Tags),
		CreatedAt: now.UTC(),
	}
	if d.Date == "" {
		d.Date = DateKey(now)
	}
	if err := ValidateDream(d); err != nil {
		return Dream{}, err
	}
	return d, nil
}

func ValidateDream(d Dream) error {
	if !ValidDateKey(d.Date) {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidDream, d.Date)
	}
	if d.Title == "" && d.Content == "" {
		return fmt.Errorf("%w: title or content is required", ErrInvalidDream)
	}
	if d.Clarity < MinRating || d.Clarity > MaxRating {
		return fmt.Errorf("%w: clarity %d outside %d..%d", ErrInvalidDream, d.Clarity, MinRating, MaxRating)
	}
	if d.Lucidity < MinRating || d.Lucidity > MaxRating {
		return fmt.Errorf("%w: lucidity %d outside %d..%d", ErrInvalidDream, d.Lucidity, MinRating, MaxRating)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Lexicon is the personal symbol dictionary.
type Lexicon []Symbol

// Lookup returns the symbol whose term is closest to term, ignoring case,
// provided the edit distance is at most maxDistance. Exact matches win.
func (l Lexicon) Lookup(term string, maxDistance int) (Symbol, bool) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return Symbol{}, false
	}
	best, bestDist := -1, maxDistance+1
	for i, sym := range l {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(sym.Term))
		if dist < bestDist {
			best, bestDist = i, dist
		}
		if dist == 0 {
			break
		}
	}
	if best < 0 {
		return Symbol{}, false
	}
	return l[best], true
}
