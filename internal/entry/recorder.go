package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitaichain/fitchain/internal/leveling"
	"github.com/fitaichain/fitchain/internal/mealwindow"
	"github.com/fitaichain/fitchain/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserNotFound indicates the logging user does not exist.
var ErrUserNotFound = errors.New("entry: user not found")

// Recorder persists food entries and re-evaluates stake qualification.
type Recorder struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewRecorder constructs a Recorder. A nil nowFn defaults to time.Now.
func NewRecorder(db *gorm.DB, nowFn func() time.Time) *Recorder {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Recorder{db: db, nowFn: nowFn}
}

// RecordParams holds inputs for recording one food entry.
type RecordParams struct {
	UserID     uint64
	GroupID    *uint64
	StakeID    *uint64
	FoodName   string
	Calories   int64
	Confidence float64
	Nutrients  datatypes.JSON
	ImageRef   string
	MealType   *models.MealType
}

// Record writes a food entry and all dependent state in one transaction.
//
// The entry itself, the user's aggregate totals, the stake participant's
// counters, the qualification flag, and the daily stats row move together;
// any failure rolls back the whole submission. Out-of-window entries are
// still persisted and still count toward personal totals, but never toward
// participant counters.
func (r *Recorder) Record(ctx context.Context, params RecordParams) (*models.FoodEntry, error) {
	now := r.nowFn()

	var record models.FoodEntry
	errTx := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.First(&user, params.UserID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("entry: load user: %w", errFind)
		}

		// Window boundaries are captured on the row at write time and stay
		// authoritative even if the configuration changes later.
		var windowStart, windowEnd *time.Time
		minImages := 0
		if params.MealType != nil && models.KnownMealType(*params.MealType) {
			resolution, errResolve := mealwindow.Resolve(tx, *params.MealType, now)
			switch {
			case errResolve == nil:
				windowStart, windowEnd = &resolution.WindowStart, &resolution.WindowEnd
				minImages = resolution.MinImages
			case errors.Is(errResolve, mealwindow.ErrConfigurationMissing):
				// Entry proceeds without a window rather than blocking.
			default:
				return errResolve
			}
		}

		streak := advanceStreak(user, now)
		xpEarned := leveling.EntryXP(streak)

		nutrients := params.Nutrients
		if len(nutrients) == 0 {
			nutrients = datatypes.JSON([]byte("{}"))
		}
		record = models.FoodEntry{
			UserID:      params.UserID,
			GroupID:     params.GroupID,
			StakeID:     params.StakeID,
			FoodName:    params.FoodName,
			Calories:    params.Calories,
			XPEarned:    xpEarned,
			Confidence:  params.Confidence,
			Nutrients:   nutrients,
			ImageRef:    params.ImageRef,
			MealType:    params.MealType,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			CreatedAt:   now,
		}
		if errCreate := tx.Create(&record).Error; errCreate != nil {
			return fmt.Errorf("entry: create: %w", errCreate)
		}

		entryDate := dateOf(now)
		totalXP := user.TotalXP + xpEarned
		userUpdates := map[string]any{
			"total_calories":  gorm.Expr("total_calories + ?", params.Calories),
			"total_xp":        gorm.Expr("total_xp + ?", xpEarned),
			"total_entries":   gorm.Expr("total_entries + 1"),
			"current_streak":  streak,
			"level":           leveling.LevelForXP(totalXP),
			"last_entry_date": entryDate,
		}
		if errUpdate := tx.Model(&models.User{}).Where("id = ?", params.UserID).Updates(userUpdates).Error; errUpdate != nil {
			return fmt.Errorf("entry: update user totals: %w", errUpdate)
		}

		if params.StakeID != nil {
			if errStake := r.applyToStake(tx, &record, minImages); errStake != nil {
				return errStake
			}
		}

		if errUpsert := upsertDailyStats(tx, params.UserID, entryDate, params.Calories, xpEarned); errUpsert != nil {
			return errUpsert
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &record, nil
}

// applyToStake updates participant counters and re-checks qualification.
//
// A submission counts when the entry carries no resolved window (non-meal
// stakes) or its timestamp falls inside the captured window, end inclusive.
func (r *Recorder) applyToStake(tx *gorm.DB, record *models.FoodEntry, minImages int) error {
	valid := record.WindowStart == nil ||
		(!record.CreatedAt.Before(*record.WindowStart) && !record.CreatedAt.After(*record.WindowEnd))
	if !valid {
		return nil
	}

	res := tx.Model(&models.StakeParticipant{}).
		Where("stake_id = ? AND user_id = ?", *record.StakeID, record.UserID).
		Updates(map[string]any{
			"calories_tracked": gorm.Expr("calories_tracked + ?", record.Calories),
			"images_submitted": gorm.Expr("images_submitted + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("entry: update participant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Entry tagged with a stake the user never joined; nothing to count.
		return nil
	}

	if minImages <= 0 || record.WindowStart == nil || record.MealType == nil {
		return nil
	}

	// The count re-queries committed rows inside this transaction, so the
	// just-inserted entry is included and concurrent submissions serialize
	// on the database's isolation level.
	var count int64
	errCount := tx.Model(&models.FoodEntry{}).
		Where("user_id = ? AND stake_id = ? AND meal_type = ?", record.UserID, *record.StakeID, *record.MealType).
		Where("created_at >= ? AND created_at <= ?", *record.WindowStart, *record.WindowEnd).
		Count(&count).Error
	if errCount != nil {
		return fmt.Errorf("entry: count window entries: %w", errCount)
	}
	if count >= int64(minImages) {
		// Qualification is monotonic; this path only ever sets it.
		if errQualify := tx.Model(&models.StakeParticipant{}).
			Where("stake_id = ? AND user_id = ?", *record.StakeID, record.UserID).
			Update("is_qualified", true).Error; errQualify != nil {
			return fmt.Errorf("entry: set qualification: %w", errQualify)
		}
	}
	return nil
}

func upsertDailyStats(tx *gorm.DB, userID uint64, date time.Time, calories, xpEarned int64) error {
	row := models.UserStatsHistory{
		UserID:       userID,
		Date:         date,
		Calories:     calories,
		XPEarned:     xpEarned,
		EntriesCount: 1,
	}
	errUpsert := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"calories":      gorm.Expr("user_stats_histories.calories + ?", calories),
			"xp_earned":     gorm.Expr("user_stats_histories.xp_earned + ?", xpEarned),
			"entries_count": gorm.Expr("user_stats_histories.entries_count + 1"),
		}),
	}).Create(&row).Error
	if errUpsert != nil {
		return fmt.Errorf("entry: upsert daily stats: %w", errUpsert)
	}
	return nil
}

// advanceStreak returns the streak after logging an entry at now.
func advanceStreak(user models.User, now time.Time) int {
	today := dateOf(now)
	if user.LastEntryDate == nil {
		return 1
	}
	last := dateOf(*user.LastEntryDate)
	switch {
	case last.Equal(today):
		if user.CurrentStreak < 1 {
			return 1
		}
		return user.CurrentStreak
	case last.Equal(today.AddDate(0, 0, -1)):
		return user.CurrentStreak + 1
	default:
		return 1
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
