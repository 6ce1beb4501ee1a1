package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitaichain/fitchain/internal/db"
	"github.com/fitaichain/fitchain/internal/models"

	"gorm.io/gorm"
)

// Service errors map to the HTTP error taxonomy at the API boundary.
var (
	// ErrNotFound indicates the group or membership does not exist.
	ErrNotFound = errors.New("group: not found")
	// ErrAlreadyMember indicates the user already belongs to the group.
	ErrAlreadyMember = errors.New("group: already a member")
	// ErrGroupFull indicates the member cap is reached.
	ErrGroupFull = errors.New("group: member cap reached")
	// ErrInvalidInput indicates malformed creation parameters.
	ErrInvalidInput = errors.New("group: invalid input")
)

// Service owns group membership and the single-admin invariant.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateParams holds inputs for group creation.
type CreateParams struct {
	Name       string
	CreatorID  uint64
	IsPrivate  bool
	MaxMembers int
}

// Create opens a group and enrolls the creator as its admin, atomically.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Group, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidInput)
	}
	if params.MaxMembers <= 0 {
		params.MaxMembers = 50
	}

	record := models.Group{
		Name:       name,
		CreatorID:  params.CreatorID,
		IsPrivate:  params.IsPrivate,
		MaxMembers: params.MaxMembers,
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&record).Error; errCreate != nil {
			return fmt.Errorf("group: create: %w", errCreate)
		}
		membership := models.GroupMember{
			GroupID: record.ID,
			UserID:  params.CreatorID,
			Role:    models.GroupRoleAdmin,
		}
		if errCreate := tx.Create(&membership).Error; errCreate != nil {
			return fmt.Errorf("group: enroll creator: %w", errCreate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &record, nil
}

// Join adds a user to a group as a regular member.
func (s *Service) Join(ctx context.Context, groupID, userID uint64) (*models.GroupMember, error) {
	var membership models.GroupMember
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Group
		if errFind := tx.First(&record, groupID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("group: load: %w", errFind)
		}

		var existing models.GroupMember
		errExisting := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&existing).Error
		if errExisting == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(errExisting, gorm.ErrRecordNotFound) {
			return fmt.Errorf("group: check membership: %w", errExisting)
		}

		var count int64
		if errCount := tx.Model(&models.GroupMember{}).Where("group_id = ?", groupID).Count(&count).Error; errCount != nil {
			return fmt.Errorf("group: count members: %w", errCount)
		}
		if record.MaxMembers > 0 && count >= int64(record.MaxMembers) {
			return ErrGroupFull
		}

		membership = models.GroupMember{
			GroupID: groupID,
			UserID:  userID,
			Role:    models.GroupRoleMember,
		}
		if errCreate := tx.Create(&membership).Error; errCreate != nil {
			return fmt.Errorf("group: join: %w", errCreate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &membership, nil
}

// Leave removes a member, transferring admin to the next-joined member when
// the admin departs and deleting the group once the last member is gone.
func (s *Service) Leave(ctx context.Context, groupID, userID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.GroupMember
		errFind := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&membership).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("group: load membership: %w", errFind)
		}

		if errDelete := tx.Delete(&membership).Error; errDelete != nil {
			return fmt.Errorf("group: leave: %w", errDelete)
		}

		var next models.GroupMember
		errNext := tx.Where("group_id = ?", groupID).Order("joined_at ASC, id ASC").First(&next).Error
		if errNext != nil {
			if !errors.Is(errNext, gorm.ErrRecordNotFound) {
				return fmt.Errorf("group: find successor: %w", errNext)
			}
			// Last member left; the group goes with them.
			if errDrop := tx.Delete(&models.Group{}, groupID).Error; errDrop != nil {
				return fmt.Errorf("group: delete empty group: %w", errDrop)
			}
			return nil
		}

		if membership.Role == models.GroupRoleAdmin && next.Role != models.GroupRoleAdmin {
			if errPromote := tx.Model(&models.GroupMember{}).Where("id = ?", next.ID).
				Update("role", models.GroupRoleAdmin).Error; errPromote != nil {
				return fmt.Errorf("group: promote successor: %w", errPromote)
			}
		}
		return nil
	})
}

// Search returns public groups whose name matches the query, newest first.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Group, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	tx := s.db.WithContext(ctx).Where("is_private = ?", false)
	if query = strings.TrimSpace(query); query != "" {
		pattern := db.NormalizeLikePattern(s.db, "%"+query+"%")
		tx = tx.Where(db.CaseInsensitiveLikeExpr(s.db, "name"), pattern)
	}
	var rows []models.Group
	if errFind := tx.Order("created_at DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("group: search: %w", errFind)
	}
	return rows, nil
}

// Get returns one group with its members.
func (s *Service) Get(ctx context.Context, groupID uint64) (*models.Group, error) {
	var record models.Group
	errFind := s.db.WithContext(ctx).Preload("Members").First(&record, groupID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("group: load: %w", errFind)
	}
	return &record, nil
}
