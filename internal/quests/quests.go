// Package quests holds the daily quest pool and the daily selection logic.
package quests

import (
	"fmt"
	"math/rand/v2"

	"dreamcatcher/internal/actions"
	"dreamcatcher/internal/catalog"
)

const DefaultDailyCount = 3

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Context is passed to every predicate. It currently carries nothing.
type Context struct{}

type Predicate func(actions.Action, Context) bool

type Definition struct {
	ID          string
	Title       string
	Description string
	XPReward    int
	Predicate   Predicate
}

// StoredQuest is one of the currently active daily quests.
type StoredQuest struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

func (q StoredQuest) Pending() bool { return q.Status != StatusCompleted }

// Pool is the ordered, immutable quest catalog.
type Pool struct {
	defs []Definition
	byID map[string]int
}

func NewPool(defs []Definition) *Pool {
	p := &Pool{
		defs: append([]Definition(nil), defs...),
		byID: make(map[string]int, len(defs)),
	}
	for i, d := range p.defs {
		p.byID[d.ID] = i
	}
	return p
}

// Compile turns a validated catalog document into a pool.
func Compile(doc catalog.QuestPool) (*Pool, error) {
	defs := make([]Definition, 0, len(doc.Quests))
	for _, spec := range doc.Quests {
		pred, err := compileRule(spec.Rule)
		if err != nil {
			return nil, fmt.Errorf("quest %s: %w", spec.ID, err)
		}
		defs = append(defs, Definition{
			ID:          spec.ID,
			Title:       spec.Title,
			Description: spec.Description,
			XPReward:    spec.XPReward,
			Predicate:   pred,
		})
	}
	return NewPool(defs), nil
}

// Builtin compiles the embedded quest pool.
func Builtin() (*Pool, error) {
	set, err := catalog.Builtin()
	if err != nil {
		return nil, err
	}
	return Compile(set.Quests)
}

func (p *Pool) Len() int { return len(p.defs) }

func (p *Pool) Definitions() []Definition {
	return append([]Definition(nil), p.defs...)
}

func (p *Pool) Lookup(id string) (Definition, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Definition{}, false
	}
	return p.defs[i], true
}

// Index returns the catalog position of id, or -1 when id is not in the pool.
func (p *Pool) Index(id string) int {
	i, ok := p.byID[id]
	if !ok {
		return -1
	}
	return i
}

// Matches evaluates def against act. A nil or panicking predicate counts as
// no match so one broken definition cannot block the others.
func Matches(def Definition, act actions.Action) (ok bool) {
	if def.Predicate == nil || act == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return def.Predicate(act, Context{})
}

// GenerateDaily draws n distinct quests uniformly at random, all pending.
// n is capped at the pool size; n <= 0 selects DefaultDailyCount.
func GenerateDaily(p *Pool, n int, rng *rand.Rand) []StoredQuest {
	if n <= 0 {
		n = DefaultDailyCount
	}
	ids := make([]string, len(p.defs))
	for i, d := range p.defs {
		ids[i] = d.ID
	}
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if rng != nil {
		rng.Shuffle(len(ids), swap)
	} else {
		rand.Shuffle(len(ids), swap)
	}
	n = min(n, len(ids))
	out := make([]StoredQuest, n)
	for i := range out {
		out[i] = StoredQuest{ID: ids[i], Status: StatusPending}
	}
	return out
}

// Regenerate returns a fresh set and today's key when last differs from
// today. Otherwise current and last come back unchanged with changed=false.
func Regenerate(current []StoredQuest, last, today string, gen func() []StoredQuest) (next []StoredQuest, key string, changed bool) {
	if last == today {
		return current, last, false
	}
	return gen(), today, true
}
