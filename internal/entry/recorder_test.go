package entry

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/fitaichain/fitchain/internal/db"
	"github.com/fitaichain/fitchain/internal/models"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "entry-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

// seedStake prepares a user, group, meal stake, and participant row, and
// pins the lunch window to 14:00-16:00 with a two photo threshold.
func seedStake(t *testing.T, conn *gorm.DB) (userID, stakeID uint64) {
	t.Helper()
	user := models.User{ID: 1, Username: "runner", VerificationType: models.VerificationWorldID}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	groupRec := models.Group{Name: "circle", CreatorID: 1, MaxMembers: 50}
	if errCreate := conn.Create(&groupRec).Error; errCreate != nil {
		t.Fatalf("seed group: %v", errCreate)
	}
	member := models.GroupMember{GroupID: groupRec.ID, UserID: 1, Role: models.GroupRoleAdmin}
	if errCreate := conn.Create(&member).Error; errCreate != nil {
		t.Fatalf("seed member: %v", errCreate)
	}

	if errWindow := conn.Model(&models.MealWindow{}).
		Where("meal_type = ?", models.MealLunch).
		Updates(map[string]any{"start_hour": 14, "start_minute": 0, "end_hour": 16, "end_minute": 0, "min_images": 2}).Error; errWindow != nil {
		t.Fatalf("pin lunch window: %v", errWindow)
	}

	mealType := models.MealLunch
	stakeRec := models.Stake{
		GroupID:         groupRec.ID,
		CreatorID:       1,
		CompetitionType: models.CompetitionMeal,
		MealType:        &mealType,
		StakeAmount:     1.0,
		TotalPool:       1.0,
		StartTime:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
		Status:          models.StakeStatusActive,
	}
	if errCreate := conn.Create(&stakeRec).Error; errCreate != nil {
		t.Fatalf("seed stake: %v", errCreate)
	}
	participant := models.StakeParticipant{StakeID: stakeRec.ID, UserID: 1, Amount: 1.0}
	if errCreate := conn.Create(&participant).Error; errCreate != nil {
		t.Fatalf("seed participant: %v", errCreate)
	}
	return 1, stakeRec.ID
}

func participantOf(t *testing.T, conn *gorm.DB, stakeID, userID uint64) models.StakeParticipant {
	t.Helper()
	var row models.StakeParticipant
	if errFind := conn.Where("stake_id = ? AND user_id = ?", stakeID, userID).First(&row).Error; errFind != nil {
		t.Fatalf("load participant: %v", errFind)
	}
	return row
}

func userOf(t *testing.T, conn *gorm.DB, userID uint64) models.User {
	t.Helper()
	var row models.User
	if errFind := conn.First(&row, userID).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	return row
}

func recordAt(t *testing.T, recorder *Recorder, nowRef *time.Time, at time.Time, params RecordParams) *models.FoodEntry {
	t.Helper()
	*nowRef = at
	record, errRecord := recorder.Record(context.Background(), params)
	if errRecord != nil {
		t.Fatalf("record at %s: %v", at, errRecord)
	}
	return record
}

func TestRecord_QualificationThresholdAndMonotonicity(t *testing.T) {
	conn := openTestDB(t)
	userID, stakeID := seedStake(t, conn)

	var now time.Time
	recorder := NewRecorder(conn, func() time.Time { return now })
	mealType := models.MealLunch
	params := RecordParams{
		UserID:   userID,
		StakeID:  &stakeID,
		FoodName: "salad",
		Calories: 300,
		MealType: &mealType,
	}

	// First in-window photo at 14:30: counted, not yet qualified.
	recordAt(t, recorder, &now, time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC), params)
	row := participantOf(t, conn, stakeID, userID)
	if row.IsQualified {
		t.Fatalf("expected not qualified after one photo")
	}
	if row.ImagesSubmitted != 1 || row.CaloriesTracked != 300 {
		t.Fatalf("unexpected counters: %+v", row)
	}

	// Second at 15:00 crosses the two photo threshold.
	recordAt(t, recorder, &now, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), params)
	row = participantOf(t, conn, stakeID, userID)
	if !row.IsQualified {
		t.Fatalf("expected qualified after two photos")
	}

	// Third at 16:05 is outside the window: the entry persists and user
	// totals grow, but participant counters and qualification hold still.
	recordAt(t, recorder, &now, time.Date(2026, 3, 10, 16, 5, 0, 0, time.UTC), params)
	row = participantOf(t, conn, stakeID, userID)
	if row.ImagesSubmitted != 2 || row.CaloriesTracked != 600 {
		t.Fatalf("out-of-window entry touched counters: %+v", row)
	}
	if !row.IsQualified {
		t.Fatalf("qualification must stay true")
	}

	user := userOf(t, conn, userID)
	if user.TotalEntries != 3 || user.TotalCalories != 900 {
		t.Fatalf("expected all three entries in user totals, got %+v", user)
	}

	var entries int64
	if errCount := conn.Model(&models.FoodEntry{}).Where("user_id = ?", userID).Count(&entries).Error; errCount != nil {
		t.Fatalf("count entries: %v", errCount)
	}
	if entries != 3 {
		t.Fatalf("expected 3 persisted entries, got %d", entries)
	}
}

func TestRecord_WindowEndBoundaryInclusive(t *testing.T) {
	conn := openTestDB(t)
	userID, stakeID := seedStake(t, conn)

	var now time.Time
	recorder := NewRecorder(conn, func() time.Time { return now })
	mealType := models.MealLunch
	params := RecordParams{
		UserID:   userID,
		StakeID:  &stakeID,
		FoodName: "soup",
		Calories: 200,
		MealType: &mealType,
	}

	// Exactly at the window end: still counts.
	recordAt(t, recorder, &now, time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC), params)
	row := participantOf(t, conn, stakeID, userID)
	if row.ImagesSubmitted != 1 {
		t.Fatalf("entry at window end must count, got %+v", row)
	}

	// One millisecond past: recorded but not counted.
	recordAt(t, recorder, &now, time.Date(2026, 3, 10, 16, 0, 0, int(time.Millisecond), time.UTC), params)
	row = participantOf(t, conn, stakeID, userID)
	if row.ImagesSubmitted != 1 {
		t.Fatalf("entry past window end must not count, got %+v", row)
	}

	user := userOf(t, conn, userID)
	if user.TotalEntries != 2 {
		t.Fatalf("both entries belong in user totals, got %d", user.TotalEntries)
	}
}

func TestRecord_CapturedWindowSurvivesConfigChange(t *testing.T) {
	conn := openTestDB(t)
	userID, stakeID := seedStake(t, conn)

	var now time.Time
	recorder := NewRecorder(conn, func() time.Time { return now })
	mealType := models.MealLunch
	record := recordAt(t, recorder, &now, time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC), RecordParams{
		UserID:   userID,
		StakeID:  &stakeID,
		FoodName: "wrap",
		Calories: 400,
		MealType: &mealType,
	})
	if record.WindowStart == nil || record.WindowEnd == nil {
		t.Fatalf("expected captured window, got %+v", record)
	}
	if record.WindowStart.Hour() != 14 || record.WindowEnd.Hour() != 16 {
		t.Fatalf("unexpected window: %s - %s", record.WindowStart, record.WindowEnd)
	}

	if errShift := conn.Model(&models.MealWindow{}).
		Where("meal_type = ?", models.MealLunch).
		Updates(map[string]any{"start_hour": 11, "end_hour": 12}).Error; errShift != nil {
		t.Fatalf("shift window: %v", errShift)
	}

	var persisted models.FoodEntry
	if errFind := conn.First(&persisted, record.ID).Error; errFind != nil {
		t.Fatalf("reload entry: %v", errFind)
	}
	if persisted.WindowStart.Hour() != 14 {
		t.Fatalf("captured window must not move with config, got %s", persisted.WindowStart)
	}
}

func TestRecord_DailyStatsUpsertAccumulates(t *testing.T) {
	conn := openTestDB(t)
	userID, _ := seedStake(t, conn)

	var now time.Time
	recorder := NewRecorder(conn, func() time.Time { return now })

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		recordAt(t, recorder, &now, day.Add(time.Duration(i)*time.Hour), RecordParams{
			UserID:   userID,
			FoodName: fmt.Sprintf("meal-%d", i),
			Calories: 100,
		})
	}

	var rows []models.UserStatsHistory
	if errFind := conn.Where("user_id = ?", userID).Find(&rows).Error; errFind != nil {
		t.Fatalf("load history: %v", errFind)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one upserted row, got %d", len(rows))
	}
	if rows[0].Calories != 300 || rows[0].EntriesCount != 3 {
		t.Fatalf("unexpected accumulation: %+v", rows[0])
	}
}

func TestRecord_StreakAdvancesAcrossDays(t *testing.T) {
	conn := openTestDB(t)
	userID, _ := seedStake(t, conn)

	var now time.Time
	recorder := NewRecorder(conn, func() time.Time { return now })

	recordAt(t, recorder, &now, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), RecordParams{UserID: userID, FoodName: "a", Calories: 100})
	recordAt(t, recorder, &now, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), RecordParams{UserID: userID, FoodName: "b", Calories: 100})
	recordAt(t, recorder, &now, time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC), RecordParams{UserID: userID, FoodName: "c", Calories: 100})

	user := userOf(t, conn, userID)
	if user.CurrentStreak != 3 {
		t.Fatalf("expected streak 3, got %d", user.CurrentStreak)
	}

	// A gap resets the streak.
	recordAt(t, recorder, &now, time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC), RecordParams{UserID: userID, FoodName: "d", Calories: 100})
	user = userOf(t, conn, userID)
	if user.CurrentStreak != 1 {
		t.Fatalf("expected streak reset to 1, got %d", user.CurrentStreak)
	}
}

func TestRecord_UnknownUserRollsBack(t *testing.T) {
	conn := openTestDB(t)

	recorder := NewRecorder(conn, nil)
	_, errRecord := recorder.Record(context.Background(), RecordParams{UserID: 42, FoodName: "ghost", Calories: 100})
	if errRecord == nil {
		t.Fatalf("expected error for unknown user")
	}

	var entries int64
	if errCount := conn.Model(&models.FoodEntry{}).Count(&entries).Error; errCount != nil {
		t.Fatalf("count entries: %v", errCount)
	}
	if entries != 0 {
		t.Fatalf("expected no persisted entries, got %d", entries)
	}
}
