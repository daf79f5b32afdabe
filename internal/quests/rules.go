package quests

import (
	"fmt"

	"dreamcatcher/internal/actions"
	"dreamcatcher/internal/catalog"
)

type ruleCompiler func(catalog.Rule) (Predicate, error)

var compilers = map[string]ruleCompiler{
	"action":             compileAction,
	"dream_clarity_min":  compileDreamMin(func(p actions.NewDream) int { return p.Clarity }),
	"dream_lucidity_min": compileDreamMin(func(p actions.NewDream) int { return p.Lucidity }),
	"dream_tags_min":     compileDreamMin(func(p actions.NewDream) int { return len(p.Tags) }),
	"sleep_hours_min":    compileSleepHoursMin,
	"reading_cards_min":  compileReadingCardsMin,
}

func compileRule(rule catalog.Rule) (Predicate, error) {
	c, ok := compilers[rule.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported quest rule type %q", rule.Type)
	}
	return c(rule)
}

func compileAction(rule catalog.Rule) (Predicate, error) {
	tag, err := actions.ParseTag(rule.Action)
	if err != nil {
		return nil, err
	}
	return func(act actions.Action, _ Context) bool {
		return act != nil && act.Tag() == tag
	}, nil
}

func compileDreamMin(field func(actions.NewDream) int) ruleCompiler {
	return func(rule catalog.Rule) (Predicate, error) {
		floor := rule.Min
		return func(act actions.Action, _ Context) bool {
			switch p := act.(type) {
			case actions.NewDream:
				return field(p) >= floor
			case *actions.NewDream:
				return p != nil && field(*p) >= floor
			}
			return false
		}, nil
	}
}

func compileSleepHoursMin(rule catalog.Rule) (Predicate, error) {
	floor := float64(rule.Min)
	return func(act actions.Action, _ Context) bool {
		switch p := act.(type) {
		case actions.LogSleep:
			return p.Hours >= floor
		case *actions.LogSleep:
			return p != nil && p.Hours >= floor
		}
		return false
	}, nil
}

func compileReadingCardsMin(rule catalog.Rule) (Predicate, error) {
	floor := rule.Min
	return func(act actions.Action, _ Context) bool {
		switch p := act.(type) {
		case actions.SaveReading:
			return p.Cards >= floor
		case actions.ConsultOracle:
			return p.Cards >= floor
		}
		return false
	}, nil
}
