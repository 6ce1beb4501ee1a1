package models

import "time"

// MealType names a configurable daily meal slot.
type MealType string

// MealType constants define the recognized meal slots.
const (
	// MealBreakfast is the morning slot.
	MealBreakfast MealType = "breakfast"
	// MealLunch is the midday slot.
	MealLunch MealType = "lunch"
	// MealDinner is the evening slot.
	MealDinner MealType = "dinner"
)

// KnownMealType reports whether the given value names a recognized meal slot.
func KnownMealType(m MealType) bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner:
		return true
	}
	return false
}

// MealWindow configures the daily submission interval for one meal type.
//
// Hours and minutes combine with the current date at evaluation time; a
// window never spans midnight, so the end must not precede the start on the
// same calendar day.
type MealWindow struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	MealType MealType `gorm:"type:text;not null;index"` // Configured meal slot.

	StartHour   int `gorm:"not null"` // Window opening hour (0-23).
	StartMinute int `gorm:"not null"` // Window opening minute (0-59).
	EndHour     int `gorm:"not null"` // Window closing hour (0-23).
	EndMinute   int `gorm:"not null"` // Window closing minute (0-59).

	MinImages int  `gorm:"not null;default:1"`    // Photos required for qualification.
	IsActive  bool `gorm:"not null;default:true"` // Whether this row is in effect.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
