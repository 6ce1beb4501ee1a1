package models

import "time"

// UserStatsHistory accumulates one row of daily totals per user.
//
// Rows are upserted (insert-or-increment) on every recorded entry and feed
// the daily and weekly leaderboards without rescanning food entries.
type UserStatsHistory struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64    `gorm:"not null;uniqueIndex:idx_user_stats_history_user_date"`           // Related user ID.
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:idx_user_stats_history_user_date"` // Calendar date.

	Calories     int64 `gorm:"not null;default:0"` // Calories logged that day.
	XPEarned     int64 `gorm:"not null;default:0"` // XP earned that day.
	EntriesCount int   `gorm:"not null;default:0"` // Entries logged that day.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
