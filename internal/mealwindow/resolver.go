package mealwindow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitaichain/fitchain/internal/models"
	"github.com/fitaichain/fitchain/internal/settings"

	"gorm.io/gorm"
)

// ErrConfigurationMissing indicates no active window row exists for the meal
// type. Callers fall back to FallbackWindow to keep submissions moving.
var ErrConfigurationMissing = errors.New("mealwindow: no active configuration")

// ErrUnknownMealType indicates the meal type is not one of the configured names.
var ErrUnknownMealType = errors.New("mealwindow: unknown meal type")

// FallbackSpan is the window length used when configuration is missing.
const FallbackSpan = 2 * time.Hour

// Resolution describes today's submission window for a meal type.
type Resolution struct {
	IsActive    bool
	WindowStart time.Time
	WindowEnd   time.Time
	MinImages   int
}

// Resolve computes today's window boundaries for a meal type.
//
// Boundaries combine the stored hour:minute pair with now's calendar date in
// now's location. Windows do not span midnight.
func Resolve(conn *gorm.DB, mealType models.MealType, now time.Time) (Resolution, error) {
	if !models.KnownMealType(mealType) {
		return Resolution{}, ErrUnknownMealType
	}

	var window models.MealWindow
	errFind := conn.Where("meal_type = ? AND is_active = ?", mealType, true).First(&window).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Resolution{}, ErrConfigurationMissing
		}
		return Resolution{}, fmt.Errorf("mealwindow: load %s: %w", mealType, errFind)
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), window.StartHour, window.StartMinute, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), window.EndHour, window.EndMinute, 0, 0, now.Location())

	return Resolution{
		IsActive:    !now.Before(start) && !now.After(end),
		WindowStart: start,
		WindowEnd:   end,
		MinImages:   window.MinImages,
	}, nil
}

// FallbackDuration returns the configured fallback window length. Values
// outside 1-24 hours fall back to FallbackSpan.
func FallbackDuration() time.Duration {
	raw, ok := settings.DBConfigValue(settings.FallbackWindowHoursKey)
	if !ok {
		return FallbackSpan
	}
	var hours int
	if errUnmarshal := json.Unmarshal(raw, &hours); errUnmarshal != nil || hours <= 0 || hours > 24 {
		return FallbackSpan
	}
	return time.Duration(hours) * time.Hour
}

// FallbackWindow returns a fixed-span window starting at now, used when no
// active configuration row exists.
func FallbackWindow(now time.Time) Resolution {
	return Resolution{
		IsActive:    true,
		WindowStart: now,
		WindowEnd:   now.Add(FallbackDuration()),
		MinImages:   1,
	}
}

// ValidateBounds rejects windows that would cross midnight or carry
// out-of-range clock values.
func ValidateBounds(startHour, startMinute, endHour, endMinute int) error {
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 {
		return fmt.Errorf("mealwindow: hour out of range")
	}
	if startMinute < 0 || startMinute > 59 || endMinute < 0 || endMinute > 59 {
		return fmt.Errorf("mealwindow: minute out of range")
	}
	if endHour < startHour || (endHour == startHour && endMinute < startMinute) {
		return fmt.Errorf("mealwindow: window must end on the same day it starts")
	}
	return nil
}
