package models

import "time"

// CompetitionType represents how a stake's end time is derived.
type CompetitionType string

// CompetitionType constants define stake competition kinds.
const (
	// CompetitionDaily runs for 24 hours from start.
	CompetitionDaily CompetitionType = "daily"
	// CompetitionMeal runs until the configured meal window closes.
	CompetitionMeal CompetitionType = "meal"
)

// StakeStatus represents the lifecycle state of a stake.
type StakeStatus string

// StakeStatus constants define stake lifecycle states.
const (
	// StakeStatusActive marks a running stake.
	StakeStatusActive StakeStatus = "active"
	// StakeStatusCompleted marks a finalized stake.
	StakeStatusCompleted StakeStatus = "completed"
	// StakeStatusCancelled marks a stake abandoned by all participants.
	StakeStatusCancelled StakeStatus = "cancelled"
)

// Stake represents a time-boxed pooled competition scoped to one group.
type Stake struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupID   uint64 `gorm:"not null;index"`    // Hosting group ID.
	Group     Group  `gorm:"foreignKey:GroupID"` // Hosting group record.
	CreatorID uint64 `gorm:"not null;index"`    // User who opened the stake.

	CompetitionType CompetitionType `gorm:"type:text;not null"` // Daily or meal-window bound.
	MealType        *MealType       `gorm:"type:text"`          // Meal type for meal competitions.

	StakeAmount float64 `gorm:"type:decimal(20,8);not null"`           // Per-participant contribution.
	TotalPool   float64 `gorm:"type:decimal(20,8);not null;default:0"` // Sum of participant contributions.

	StartTime time.Time `gorm:"not null"` // Competition start.
	EndTime   time.Time `gorm:"not null"` // Competition end, derived at creation.

	Status   StakeStatus `gorm:"type:text;not null;default:'active';index"` // Current lifecycle state.
	WinnerID *uint64     `gorm:"index"`                                     // Winning user once completed.

	Participants []StakeParticipant `gorm:"foreignKey:StakeID"` // Related participant rows.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// StakeParticipant records a user's membership and progress in a stake.
type StakeParticipant struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	StakeID uint64 `gorm:"not null;uniqueIndex:idx_stake_participants_stake_user"` // Related stake ID.
	UserID  uint64 `gorm:"not null;uniqueIndex:idx_stake_participants_stake_user"` // Related user ID.
	User    User   `gorm:"foreignKey:UserID"`                                      // Related user record.

	Amount          float64 `gorm:"type:decimal(20,8);not null"` // Contributed amount.
	CaloriesTracked int64   `gorm:"not null;default:0"`          // Calories logged in-window.
	ImagesSubmitted int     `gorm:"not null;default:0"`          // Qualifying photos submitted.
	IsQualified     bool    `gorm:"not null;default:false"`      // Met the minimum photo threshold.

	JoinedAt time.Time `gorm:"not null;autoCreateTime"` // Join timestamp, breaks winner ties.
}
