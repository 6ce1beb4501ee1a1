package models

import "time"

// VerificationType identifies how an account proved its identity.
type VerificationType string

// VerificationType constants define supported identity levels.
const (
	// VerificationWorldID marks a World ID orb/device verified human.
	VerificationWorldID VerificationType = "worldid"
	// VerificationGuest marks an unverified guest account.
	VerificationGuest VerificationType = "guest"
	// VerificationWallet marks a wallet-authenticated account.
	VerificationWallet VerificationType = "wallet"
)

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username         string           `gorm:"type:text;not null;uniqueIndex"` // Unique display name.
	VerificationType VerificationType `gorm:"type:text;not null"`             // Identity level.
	NullifierHash    *string          `gorm:"type:text;uniqueIndex"`          // World ID nullifier, unique per human.
	WalletAddress    *string          `gorm:"type:text;index"`                // Optional wallet address.

	TotalCalories int64 `gorm:"not null;default:0"` // Lifetime calories logged.
	TotalXP       int64 `gorm:"not null;default:0"` // Lifetime XP earned.
	TotalEntries  int64 `gorm:"not null;default:0"` // Lifetime food entry count.
	CurrentStreak int   `gorm:"not null;default:0"` // Consecutive logging days.
	Level         int   `gorm:"not null;default:1"` // Current level from XP.

	LastEntryDate *time.Time `gorm:"type:date"` // Calendar date of the latest entry, drives streaks.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
