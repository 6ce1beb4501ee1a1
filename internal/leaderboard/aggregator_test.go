package leaderboard

import (
	"context"
	"errors"
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
	dsn := "file:" + filepath.Join(t.TempDir(), "leaderboard-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedGroup(t *testing.T, conn *gorm.DB, userIDs ...uint64) uint64 {
	t.Helper()
	for _, id := range userIDs {
		user := models.User{ID: id, Username: fmt.Sprintf("user-%d", id), VerificationType: models.VerificationWorldID}
		if errCreate := conn.Create(&user).Error; errCreate != nil {
			t.Fatalf("seed user %d: %v", id, errCreate)
		}
	}
	groupRec := models.Group{Name: "squad", CreatorID: userIDs[0], MaxMembers: 50}
	if errCreate := conn.Create(&groupRec).Error; errCreate != nil {
		t.Fatalf("seed group: %v", errCreate)
	}
	for i, id := range userIDs {
		role := models.GroupRoleMember
		if i == 0 {
			role = models.GroupRoleAdmin
		}
		member := models.GroupMember{GroupID: groupRec.ID, UserID: id, Role: role}
		if errCreate := conn.Create(&member).Error; errCreate != nil {
			t.Fatalf("seed member %d: %v", id, errCreate)
		}
	}
	return groupRec.ID
}

func seedStats(t *testing.T, conn *gorm.DB, userID uint64, date time.Time, calories, xp int64, entries int) {
	t.Helper()
	row := models.UserStatsHistory{UserID: userID, Date: date, Calories: calories, XPEarned: xp, EntriesCount: entries}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("seed stats: %v", errCreate)
	}
}

func TestGroup_DailyZeroFillsMembersWithoutStats(t *testing.T) {
	conn := openTestDB(t)
	groupID := seedGroup(t, conn, 1, 2, 3)

	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seedStats(t, conn, 1, day, 1200, 40, 3)
	seedStats(t, conn, 2, day, 800, 20, 2)
	// User 3 logged nothing today and a stats row on another day must not leak in.
	seedStats(t, conn, 3, day.AddDate(0, 0, -1), 5000, 100, 5)

	entries, errGroup := NewAggregator(conn).Group(context.Background(), groupID, TimeframeDaily, day.Add(10*time.Hour))
	if errGroup != nil {
		t.Fatalf("daily board: %v", errGroup)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 rows including zero-fill, got %d", len(entries))
	}
	if entries[0].UserID != 1 || entries[1].UserID != 2 || entries[2].UserID != 3 {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[2].Calories != 0 || entries[2].XPEarned != 0 || entries[2].EntriesCount != 0 {
		t.Fatalf("expected zeroed trailing row, got %+v", entries[2])
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Fatalf("expected dense rank %d, got %d", i+1, e.Rank)
		}
	}
}

func TestGroup_WeeklySumsCalendarWeek(t *testing.T) {
	conn := openTestDB(t)
	groupID := seedGroup(t, conn, 1, 2)

	// 2026-04-08 is a Wednesday; its week runs Sunday 2026-04-05 through
	// Saturday 2026-04-11.
	sunday := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	seedStats(t, conn, 1, sunday, 500, 10, 1)
	seedStats(t, conn, 1, sunday.AddDate(0, 0, 6), 700, 20, 2)
	// The preceding Saturday and the following Sunday fall outside the week.
	seedStats(t, conn, 2, sunday.AddDate(0, 0, -1), 9000, 90, 9)
	seedStats(t, conn, 2, sunday.AddDate(0, 0, 7), 9000, 90, 9)
	seedStats(t, conn, 2, sunday.AddDate(0, 0, 3), 300, 5, 1)

	wednesday := time.Date(2026, 4, 8, 13, 0, 0, 0, time.UTC)
	entries, errGroup := NewAggregator(conn).Group(context.Background(), groupID, TimeframeWeekly, wednesday)
	if errGroup != nil {
		t.Fatalf("weekly board: %v", errGroup)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(entries))
	}
	if entries[0].UserID != 1 || entries[0].Calories != 1200 || entries[0].XPEarned != 30 {
		t.Fatalf("unexpected leader: %+v", entries[0])
	}
	if entries[1].UserID != 2 || entries[1].Calories != 300 {
		t.Fatalf("out-of-week rows leaked in: %+v", entries[1])
	}
}

func TestGroup_AllTimeRanksByLifetimeTotals(t *testing.T) {
	conn := openTestDB(t)
	groupID := seedGroup(t, conn, 1, 2)

	if errUpdate := conn.Model(&models.User{}).Where("id = ?", 2).
		Updates(map[string]any{"total_calories": 4000, "total_xp": 120, "total_entries": 8}).Error; errUpdate != nil {
		t.Fatalf("set totals: %v", errUpdate)
	}
	if errUpdate := conn.Model(&models.User{}).Where("id = ?", 1).
		Updates(map[string]any{"total_calories": 1000, "total_xp": 40, "total_entries": 2}).Error; errUpdate != nil {
		t.Fatalf("set totals: %v", errUpdate)
	}

	entries, errGroup := NewAggregator(conn).Group(context.Background(), groupID, TimeframeAllTime, time.Now())
	if errGroup != nil {
		t.Fatalf("alltime board: %v", errGroup)
	}
	if len(entries) != 2 || entries[0].UserID != 2 || entries[0].Calories != 4000 || entries[0].EntriesCount != 8 {
		t.Fatalf("unexpected alltime ranking: %+v", entries)
	}
}

func TestGroup_UnknownTimeframe(t *testing.T) {
	conn := openTestDB(t)
	_, errGroup := NewAggregator(conn).Group(context.Background(), 1, Timeframe("hourly"), time.Now())
	if !errors.Is(errGroup, ErrUnknownTimeframe) {
		t.Fatalf("expected ErrUnknownTimeframe, got %v", errGroup)
	}
}

func TestStake_OrdersByCaloriesThenImages(t *testing.T) {
	conn := openTestDB(t)
	groupID := seedGroup(t, conn, 1, 2, 3)

	stakeRec := models.Stake{
		GroupID:         groupID,
		CreatorID:       1,
		CompetitionType: models.CompetitionDaily,
		StakeAmount:     2.0,
		TotalPool:       6.0,
		StartTime:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		Status:          models.StakeStatusActive,
	}
	if errCreate := conn.Create(&stakeRec).Error; errCreate != nil {
		t.Fatalf("seed stake: %v", errCreate)
	}
	participants := []models.StakeParticipant{
		{StakeID: stakeRec.ID, UserID: 1, Amount: 2.0, CaloriesTracked: 900, ImagesSubmitted: 2, IsQualified: true},
		{StakeID: stakeRec.ID, UserID: 2, Amount: 2.0, CaloriesTracked: 900, ImagesSubmitted: 3, IsQualified: true},
		{StakeID: stakeRec.ID, UserID: 3, Amount: 2.0, CaloriesTracked: 400, ImagesSubmitted: 1},
	}
	for i := range participants {
		if errCreate := conn.Create(&participants[i]).Error; errCreate != nil {
			t.Fatalf("seed participant: %v", errCreate)
		}
	}
	for _, fe := range []models.FoodEntry{
		{UserID: 2, StakeID: &stakeRec.ID, FoodName: "a", Calories: 450, XPEarned: 10, CreatedAt: stakeRec.StartTime.Add(time.Hour)},
		{UserID: 2, StakeID: &stakeRec.ID, FoodName: "b", Calories: 450, XPEarned: 12, CreatedAt: stakeRec.StartTime.Add(2 * time.Hour)},
	} {
		if errCreate := conn.Create(&fe).Error; errCreate != nil {
			t.Fatalf("seed entry: %v", errCreate)
		}
	}

	entries, errStake := NewAggregator(conn).Stake(context.Background(), stakeRec.ID)
	if errStake != nil {
		t.Fatalf("stake board: %v", errStake)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(entries))
	}
	// Equal calories break on image count.
	if entries[0].UserID != 2 || entries[1].UserID != 1 || entries[2].UserID != 3 {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[0].XPEarned != 22 {
		t.Fatalf("expected summed entry XP 22, got %d", entries[0].XPEarned)
	}
	if !entries[0].IsQualified || entries[2].IsQualified {
		t.Fatalf("qualification flags mangled: %+v", entries)
	}
}

func TestWeekStart_SundayAligned(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)},  // Sunday maps to itself.
		{time.Date(2026, 4, 8, 23, 59, 0, 0, time.UTC), time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)}, // Midweek.
		{time.Date(2026, 4, 11, 1, 0, 0, 0, time.UTC), time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)},  // Saturday.
	}
	for _, tc := range cases {
		if got := weekStart(tc.in); !got.Equal(tc.want) {
			t.Fatalf("weekStart(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
