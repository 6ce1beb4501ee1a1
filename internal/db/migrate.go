package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fitaichain/fitchain/internal/models"
	internalsettings "github.com/fitaichain/fitchain/internal/settings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate applies the schema and seeds required configuration rows.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Stake{},
		&models.StakeParticipant{},
		&models.MealWindow{},
		&models.FoodEntry{},
		&models.UserStatsHistory{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultMealWindows(conn); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureIntSetting(conn, internalsettings.RateLimitKey, internalsettings.DefaultRateLimit); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureBoolSetting(conn, internalsettings.RateLimitRedisEnabledKey, false); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureIntSetting(conn, internalsettings.FallbackWindowHoursKey, internalsettings.DefaultFallbackWindowHours); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureSetting(conn, internalsettings.SiteNameKey, internalsettings.DefaultSiteName); errSeed != nil {
		return errSeed
	}
	return nil
}

// defaultMealWindows seeds the three standard meal slots on first boot.
var defaultMealWindows = []models.MealWindow{
	{MealType: models.MealBreakfast, StartHour: 6, StartMinute: 0, EndHour: 10, EndMinute: 0, MinImages: 1, IsActive: true},
	{MealType: models.MealLunch, StartHour: 12, StartMinute: 0, EndHour: 15, EndMinute: 0, MinImages: 2, IsActive: true},
	{MealType: models.MealDinner, StartHour: 18, StartMinute: 0, EndHour: 21, EndMinute: 0, MinImages: 2, IsActive: true},
}

func ensureDefaultMealWindows(conn *gorm.DB) error {
	for _, window := range defaultMealWindows {
		var existing models.MealWindow
		errFind := conn.Where("meal_type = ? AND is_active = ?", window.MealType, true).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: check meal window %s: %w", window.MealType, errFind)
		}
		record := window
		if errCreate := conn.Create(&record).Error; errCreate != nil {
			return fmt.Errorf("db: seed meal window %s: %w", window.MealType, errCreate)
		}
	}
	return nil
}

func ensureIntSetting(conn *gorm.DB, key string, value int) error {
	return ensureSetting(conn, key, value)
}

func ensureBoolSetting(conn *gorm.DB, key string, value bool) error {
	return ensureSetting(conn, key, value)
}

func ensureSetting(conn *gorm.DB, key string, value any) error {
	var existing models.Setting
	errFind := conn.Where("key = ?", key).First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: check setting %s: %w", key, errFind)
	}
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: marshal setting %s: %w", key, errMarshal)
	}
	record := models.Setting{Key: key, Value: datatypes.JSON(payload)}
	if errCreate := conn.Create(&record).Error; errCreate != nil {
		return fmt.Errorf("db: seed setting %s: %w", key, errCreate)
	}
	return nil
}
