// Package levels derives a player level from accumulated XP.
package levels

import "math"

// Infinite is the NextLevelXP sentinel reported at the top level.
const Infinite = math.MaxInt

// Thresholds[i] is the minimum XP for level i+1. Ascending.
var Thresholds = []int{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 12000}

type State struct {
	Level          int  `json:"level"`
	Progress       int  `json:"progress"`
	CurrentLevelXP int  `json:"current_level_xp"`
	NextLevelXP    int  `json:"next_level_xp"`
	MaxLevel       bool `json:"max_level"`
}

// Compute returns the level state for xp. XP below the first threshold
// (including negative values) reports level 1 with zero progress.
func Compute(xp int) State {
	idx := 0
	for i, threshold := range Thresholds {
		if xp >= threshold {
			idx = i
		}
	}

	current := Thresholds[idx]
	if idx == len(Thresholds)-1 {
		return State{
			Level:          idx + 1,
			Progress:       100,
			CurrentLevelXP: current,
			NextLevelXP:    Infinite,
			MaxLevel:       true,
		}
	}

	next := Thresholds[idx+1]
	progress := 0
	if xp > current {
		progress = (xp - current) * 100 / (next - current)
	}
	return State{
		Level:          idx + 1,
		Progress:       clamp(progress, 0, 100),
		CurrentLevelXP: current,
		NextLevelXP:    next,
	}
}

// Max returns the highest reachable level.
func Max() int { return len(Thresholds) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
