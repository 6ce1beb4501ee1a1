package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Timeframe selects the aggregation window for group leaderboards.
type Timeframe string

// Timeframe constants define supported group leaderboard windows.
const (
	// TimeframeDaily ranks by today's stats row.
	TimeframeDaily Timeframe = "daily"
	// TimeframeWeekly ranks by the calendar week containing the date.
	TimeframeWeekly Timeframe = "weekly"
	// TimeframeAllTime ranks by lifetime user totals.
	TimeframeAllTime Timeframe = "alltime"
)

// ErrUnknownTimeframe indicates an unsupported timeframe value.
var ErrUnknownTimeframe = errors.New("leaderboard: unknown timeframe")

// Entry is one ranked leaderboard row.
type Entry struct {
	Rank            int     `json:"rank"`
	UserID          uint64  `json:"user_id"`
	Username        string  `json:"username"`
	Calories        int64   `json:"calories"`
	XPEarned        int64   `json:"xp_earned"`
	EntriesCount    int     `json:"entries_count"`
	ImagesSubmitted int     `json:"images_submitted,omitempty"`
	IsQualified     bool    `json:"is_qualified,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
}

// Aggregator produces ranked read-only views over committed state.
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator constructs an Aggregator.
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Stake ranks stake participants by tracked calories, then photos.
// Each row carries the participant's summed XP from associated entries.
func (a *Aggregator) Stake(ctx context.Context, stakeID uint64) ([]Entry, error) {
	type row struct {
		UserID          uint64
		Username        string
		CaloriesTracked int64
		ImagesSubmitted int
		IsQualified     bool
		Amount          float64
		XPEarned        int64
	}
	var rows []row
	errScan := a.db.WithContext(ctx).Raw(`
		SELECT
			sp.user_id,
			u.username,
			sp.calories_tracked,
			sp.images_submitted,
			sp.is_qualified,
			sp.amount,
			COALESCE(SUM(fe.xp_earned), 0) AS xp_earned
		FROM stake_participants sp
		JOIN users u ON u.id = sp.user_id
		LEFT JOIN food_entries fe ON fe.stake_id = sp.stake_id AND fe.user_id = sp.user_id
		WHERE sp.stake_id = ?
		GROUP BY sp.user_id, u.username, sp.calories_tracked, sp.images_submitted, sp.is_qualified, sp.amount
		ORDER BY sp.calories_tracked DESC, sp.images_submitted DESC
	`, stakeID).Scan(&rows).Error
	if errScan != nil {
		return nil, fmt.Errorf("leaderboard: stake %d: %w", stakeID, errScan)
	}

	out := make([]Entry, 0, len(rows))
	for i, r := range rows {
		out = append(out, Entry{
			Rank:            i + 1,
			UserID:          r.UserID,
			Username:        r.Username,
			Calories:        r.CaloriesTracked,
			XPEarned:        r.XPEarned,
			ImagesSubmitted: r.ImagesSubmitted,
			IsQualified:     r.IsQualified,
			Amount:          r.Amount,
		})
	}
	return out, nil
}

// Group ranks group members for the timeframe anchored at date.
// Members without stats rows appear with zeroes rather than dropping out.
func (a *Aggregator) Group(ctx context.Context, groupID uint64, timeframe Timeframe, date time.Time) ([]Entry, error) {
	switch timeframe {
	case TimeframeDaily:
		day := truncateDate(date)
		return a.groupHistory(ctx, groupID, day, day.AddDate(0, 0, 1))
	case TimeframeWeekly:
		start := weekStart(date)
		return a.groupHistory(ctx, groupID, start, start.AddDate(0, 0, 7))
	case TimeframeAllTime:
		return a.groupAllTime(ctx, groupID)
	default:
		return nil, ErrUnknownTimeframe
	}
}

func (a *Aggregator) groupHistory(ctx context.Context, groupID uint64, from, to time.Time) ([]Entry, error) {
	type row struct {
		UserID       uint64
		Username     string
		Calories     int64
		XPEarned     int64
		EntriesCount int
	}
	var rows []row
	errScan := a.db.WithContext(ctx).Raw(`
		SELECT
			gm.user_id,
			u.username,
			COALESCE(SUM(ush.calories), 0) AS calories,
			COALESCE(SUM(ush.xp_earned), 0) AS xp_earned,
			COALESCE(SUM(ush.entries_count), 0) AS entries_count
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		LEFT JOIN user_stats_histories ush
			ON ush.user_id = gm.user_id AND ush.date >= ? AND ush.date < ?
		WHERE gm.group_id = ?
		GROUP BY gm.user_id, u.username
		ORDER BY calories DESC, xp_earned DESC
	`, from, to, groupID).Scan(&rows).Error
	if errScan != nil {
		return nil, fmt.Errorf("leaderboard: group %d: %w", groupID, errScan)
	}

	out := make([]Entry, 0, len(rows))
	for i, r := range rows {
		out = append(out, Entry{
			Rank:         i + 1,
			UserID:       r.UserID,
			Username:     r.Username,
			Calories:     r.Calories,
			XPEarned:     r.XPEarned,
			EntriesCount: r.EntriesCount,
		})
	}
	return out, nil
}

func (a *Aggregator) groupAllTime(ctx context.Context, groupID uint64) ([]Entry, error) {
	type row struct {
		UserID        uint64
		Username      string
		TotalCalories int64
		TotalXP       int64
		TotalEntries  int
	}
	var rows []row
	errScan := a.db.WithContext(ctx).Raw(`
		SELECT
			gm.user_id,
			u.username,
			u.total_calories,
			u.total_xp,
			u.total_entries
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY u.total_calories DESC, u.total_xp DESC
	`, groupID).Scan(&rows).Error
	if errScan != nil {
		return nil, fmt.Errorf("leaderboard: group %d alltime: %w", groupID, errScan)
	}

	out := make([]Entry, 0, len(rows))
	for i, r := range rows {
		out = append(out, Entry{
			Rank:         i + 1,
			UserID:       r.UserID,
			Username:     r.Username,
			Calories:     r.TotalCalories,
			XPEarned:     r.TotalXP,
			EntriesCount: r.TotalEntries,
		})
	}
	return out, nil
}

// weekStart returns midnight UTC on the day-of-week boundary containing t.
// The week is weekday-aligned (Sunday start), matching the upstream web
// client's convention rather than ISO weeks.
func weekStart(t time.Time) time.Time {
	day := truncateDate(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
