package models

import "time"

// GroupRole represents a member's role inside a group.
type GroupRole string

// GroupRole constants define group member roles.
const (
	// GroupRoleAdmin marks the group owner.
	GroupRoleAdmin GroupRole = "admin"
	// GroupRoleMember marks a regular member.
	GroupRoleMember GroupRole = "member"
)

// Group represents a circle of users that can host competitions.
type Group struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name      string `gorm:"type:text;not null"` // Group display name.
	CreatorID uint64 `gorm:"not null;index"`     // User who created the group.

	IsPrivate  bool `gorm:"not null;default:false"` // Whether joining requires an invite.
	MaxMembers int  `gorm:"not null;default:50"`    // Member cap.

	Members []GroupMember `gorm:"foreignKey:GroupID"` // Related membership rows.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// GroupMember links a user to a group with a role.
//
// Exactly one admin exists while the group has members; ownership moves to
// the next-joined member when the admin leaves.
type GroupMember struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupID uint64 `gorm:"not null;uniqueIndex:idx_group_members_group_user"` // Related group ID.
	UserID  uint64 `gorm:"not null;uniqueIndex:idx_group_members_group_user"` // Related user ID.
	User    User   `gorm:"foreignKey:UserID"`                                 // Related user record.

	Role GroupRole `gorm:"type:text;not null;default:'member'"` // Member role.

	JoinedAt time.Time `gorm:"not null;autoCreateTime"` // Join timestamp.
}
