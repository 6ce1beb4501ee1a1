// Package leveling computes XP awards, level progression, and streak
// multipliers from fixed lookup tables. It performs no I/O.
package leveling

// BaseEntryXP is the XP granted for a logged entry before multipliers.
const BaseEntryXP = 10

// levelThresholds holds the cumulative XP required to reach each level.
// Index 0 is level 1.
var levelThresholds = []int64{
	0,     // 1
	100,   // 2
	250,   // 3
	500,   // 4
	1000,  // 5
	1750,  // 6
	2750,  // 7
	4000,  // 8
	5500,  // 9
	7500,  // 10
	10000, // 11
	13000, // 12
	16500, // 13
	20500, // 14
	25000, // 15
}

// MaxLevel is the highest reachable level.
var MaxLevel = len(levelThresholds)

// LevelForXP returns the level reached at the given cumulative XP.
func LevelForXP(totalXP int64) int {
	if totalXP < 0 {
		return 1
	}
	level := 1
	for i, threshold := range levelThresholds {
		if totalXP >= threshold {
			level = i + 1
		}
	}
	return level
}

// ProgressToNext returns XP into the current level and XP needed for the
// next one. At max level both values are zero.
func ProgressToNext(totalXP int64) (into int64, needed int64) {
	level := LevelForXP(totalXP)
	if level >= MaxLevel {
		return 0, 0
	}
	current := levelThresholds[level-1]
	next := levelThresholds[level]
	return totalXP - current, next - current
}

// StreakMultiplier scales entry XP by consecutive logging days.
func StreakMultiplier(streakDays int) float64 {
	switch {
	case streakDays >= 30:
		return 2.0
	case streakDays >= 14:
		return 1.75
	case streakDays >= 7:
		return 1.5
	case streakDays >= 3:
		return 1.25
	default:
		return 1.0
	}
}

// EntryXP returns the XP awarded for one entry at the given streak.
func EntryXP(streakDays int) int64 {
	return int64(float64(BaseEntryXP) * StreakMultiplier(streakDays))
}
