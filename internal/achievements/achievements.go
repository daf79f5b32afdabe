// Package achievements holds the achievement catalog and the unlock checker.
package achievements

import (
	"fmt"
	"time"

	"dreamcatcher/internal/catalog"
)

type Predicate func(Snapshot) bool

type Definition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	XPReward    int
	Predicate   Predicate
}

// Compile turns a validated catalog document into ordered definitions.
func Compile(doc catalog.AchievementCatalog) ([]Definition, error) {
	defs := make([]Definition, 0, len(doc.Achievements))
	for _, spec := range doc.Achievements {
		pred, err := compileRule(spec.Rule)
		if err != nil {
			return nil, fmt.Errorf("achievement %s: %w", spec.ID, err)
		}
		defs = append(defs, Definition{
			ID:          spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
			Icon:        spec.Icon,
			XPReward:    spec.XPReward,
			Predicate:   pred,
		})
	}
	return defs, nil
}

// Builtin compiles the embedded achievement catalog.
func Builtin() ([]Definition, error) {
	set, err := catalog.Builtin()
	if err != nil {
		return nil, err
	}
	return Compile(set.Achievements)
}

// Check evaluates every definition whose id is not yet in unlocked. Newly
// satisfied ones are returned in catalog order together with a copy of
// unlocked that records their unlock time. When nothing unlocks, unlocked
// itself is returned so callers can skip the write.
func Check(defs []Definition, snap Snapshot, unlocked map[string]string, now time.Time) ([]Definition, map[string]string) {
	var (
		fresh   []Definition
		updated map[string]string
	)
	stamp := now.UTC().Format(time.RFC3339)
	for _, def := range defs {
		if _, done := unlocked[def.ID]; done {
			continue
		}
		if _, done := updated[def.ID]; done {
			continue
		}
		if !satisfied(def, snap) {
			continue
		}
		if updated == nil {
			updated = make(map[string]string, len(unlocked)+1)
			for k, v := range unlocked {
				updated[k] = v
			}
		}
		updated[def.ID] = stamp
		fresh = append(fresh, def)
	}
	if updated == nil {
		return nil, unlocked
	}
	return fresh, updated
}

func satisfied(def Definition, snap Snapshot) (ok bool) {
	if def.Predicate == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return def.Predicate(snap)
}
