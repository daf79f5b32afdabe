package achievements

import (
	"fmt"

	"dreamcatcher/internal/catalog"
	"dreamcatcher/internal/journal"
)

type ruleCompiler func(catalog.Rule) (Predicate, error)

var compilers = map[string]ruleCompiler{
	"collection_min":         compileCollectionMin,
	"lucid_dreams_min":       compileDreamCountMin(journal.Dream.IsLucid),
	"illustrated_dreams_min": compileDreamCountMin(journal.Dream.Illustrated),
	"analyzed_dreams_min":    compileDreamCountMin(func(d journal.Dream) bool { return d.Analysis != "" }),
	"current_streak_min": func(rule catalog.Rule) (Predicate, error) {
		return func(s Snapshot) bool { return s.Streaks().Current >= rule.Min }, nil
	},
	"longest_streak_min": func(rule catalog.Rule) (Predicate, error) {
		return func(s Snapshot) bool { return s.Streaks().Longest >= rule.Min }, nil
	},
	"level_min": func(rule catalog.Rule) (Predicate, error) {
		return func(s Snapshot) bool { return s.Level().Level >= rule.Min }, nil
	},
}

func compileRule(rule catalog.Rule) (Predicate, error) {
	c, ok := compilers[rule.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported achievement rule type %q", rule.Type)
	}
	return c(rule)
}

func compileCollectionMin(rule catalog.Rule) (Predicate, error) {
	if (Snapshot{}).Count(rule.Collection) < 0 {
		return nil, fmt.Errorf("unknown collection %q", rule.Collection)
	}
	return func(s Snapshot) bool {
		return s.Count(rule.Collection) >= rule.Min
	}, nil
}

func compileDreamCountMin(keep func(journal.Dream) bool) ruleCompiler {
	return func(rule catalog.Rule) (Predicate, error) {
		return func(s Snapshot) bool {
			return s.countDreams(keep) >= rule.Min
		}, nil
	}
}
