package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	QuestPoolKind          = "quest_pool"
	AchievementCatalogKind = "achievement_catalog"
	SupportedSchemaVersion = 1
)

var (
	ErrUnsupportedSchema = errors.New("unsupported catalog schema")
	idPattern            = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)
)

// Rule selects a predicate evaluator by Type; the remaining fields are its
// parameters. Which fields apply depends on the evaluator.
type Rule struct {
	Type       string `yaml:"type"`
	Action     string `yaml:"action,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	Min        int    `yaml:"min,omitempty"`
}

type QuestPool struct {
	Kind          string      `yaml:"kind"`
	SchemaVersion int         `yaml:"schema_version"`
	Quests        []QuestSpec `yaml:"quests"`
}

type QuestSpec struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	XPReward    int    `yaml:"xp_reward"`
	Rule        Rule   `yaml:"rule"`
}

type AchievementCatalog struct {
	Kind          string            `yaml:"kind"`
	SchemaVersion int               `yaml:"schema_version"`
	Achievements  []AchievementSpec `yaml:"achievements"`
}

type AchievementSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon,omitempty"`
	XPReward    int    `yaml:"xp_reward"`
	Rule        Rule   `yaml:"rule"`
}

func (p QuestPool) Validate() error {
	if err := validateHeader(p.Kind, QuestPoolKind, p.SchemaVersion); err != nil {
		return err
	}
	if len(p.Quests) == 0 {
		return fmt.Errorf("quest pool is empty")
	}
	seen := map[string]bool{}
	for i, q := range p.Quests {
		if err := validateEntry(q.ID, q.Title, q.XPReward, q.Rule, seen); err != nil {
			return fmt.Errorf("quests[%d]: %w", i, err)
		}
	}
	return nil
}

func (c AchievementCatalog) Validate() error {
	if err := validateHeader(c.Kind, AchievementCatalogKind, c.SchemaVersion); err != nil {
		return err
	}
	if len(c.Achievements) == 0 {
		return fmt.Errorf("achievement catalog is empty")
	}
	seen := map[string]bool{}
	for i, a := range c.Achievements {
		if err := validateEntry(a.ID, a.Name, a.XPReward, a.Rule, seen); err != nil {
			return fmt.Errorf("achievements[%d]: %w", i, err)
		}
	}
	return nil
}

func validateHeader(kind, wantKind string, version int) error {
	if kind != wantKind {
		return fmt.Errorf("kind must be %q, got %q", wantKind, kind)
	}
	if version != SupportedSchemaVersion {
		return fmt.Errorf("%w: schema_version %d (supported: %d)", ErrUnsupportedSchema, version, SupportedSchemaVersion)
	}
	return nil
}

func validateEntry(id, title string, xp int, rule Rule, seen map[string]bool) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id %q", id)
	}
	if seen[id] {
		return fmt.Errorf("duplicate id %q", id)
	}
	seen[id] = true
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%s: title is required", id)
	}
	if xp < 0 {
		return fmt.Errorf("%s: xp_reward must be >= 0", id)
	}
	if strings.TrimSpace(rule.Type) == "" {
		return fmt.Errorf("%s: rule.type is required", id)
	}
	if rule.Min < 0 {
		return fmt.Errorf("%s: rule.min must be >= 0", id)
	}
	return nil
}
