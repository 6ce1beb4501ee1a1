package models

import (
	"time"

	"gorm.io/datatypes"
)

// FoodEntry records a single logged meal photo and its analysis result.
//
// Window boundaries resolved at write time are captured on the row and stay
// authoritative even if the global meal window configuration changes later.
type FoodEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  uint64  `gorm:"not null;index"` // Logging user ID.
	GroupID *uint64 `gorm:"index"`          // Optional hosting group ID.
	StakeID *uint64 `gorm:"index"`          // Optional competition ID.

	FoodName   string         `gorm:"type:text;not null"`               // Recognized food label.
	Calories   int64          `gorm:"not null"`                         // Estimated calories.
	XPEarned   int64          `gorm:"not null;default:0"`               // XP granted for this entry.
	Confidence float64        `gorm:"type:decimal(5,4);not null"`       // Recognition confidence (0-1).
	Nutrients  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Free-form nutrition metadata.

	ImageRef string    `gorm:"type:text"` // Stored image reference.
	MealType *MealType `gorm:"type:text"` // Optional meal slot tag.

	WindowStart *time.Time // Resolved window opening, captured at write time.
	WindowEnd   *time.Time // Resolved window closing, captured at write time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Submission timestamp.
}
