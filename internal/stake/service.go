package stake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitaichain/fitchain/internal/mealwindow"
	"github.com/fitaichain/fitchain/internal/models"

	"gorm.io/gorm"
)

// Service errors map to the HTTP error taxonomy at the API boundary.
var (
	// ErrNotFound indicates the referenced stake or group does not exist.
	ErrNotFound = errors.New("stake: not found")
	// ErrNotAuthorized indicates the actor is not a member of the stake's group.
	ErrNotAuthorized = errors.New("stake: not a group member")
	// ErrAlreadyJoined indicates a participant row already exists.
	ErrAlreadyJoined = errors.New("stake: already joined")
	// ErrStakeClosed indicates the stake is not active or past its end time.
	ErrStakeClosed = errors.New("stake: closed")
	// ErrTooLateToLeave indicates the stake has already started.
	ErrTooLateToLeave = errors.New("stake: too late to leave")
	// ErrNotReady indicates the stake cannot be finalized yet or already was.
	ErrNotReady = errors.New("stake: not ready to finalize")
	// ErrInvalidInput indicates malformed creation parameters.
	ErrInvalidInput = errors.New("stake: invalid input")
)

// Service owns the stake lifecycle and the pool-consistency invariant.
type Service struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewService constructs a Service. A nil nowFn defaults to time.Now.
func NewService(db *gorm.DB, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{db: db, nowFn: nowFn}
}

// CreateParams holds inputs for stake creation.
type CreateParams struct {
	GroupID         uint64
	CreatorID       uint64
	CompetitionType models.CompetitionType
	MealType        *models.MealType
	Amount          float64
	StartTime       time.Time
}

// Create opens a stake and enrolls the creator as its first participant.
//
// The stake row, the creator's participant row, and the initial pool are
// written in one transaction so a stake without a participant is never
// observable.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Stake, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	switch params.CompetitionType {
	case models.CompetitionDaily:
	case models.CompetitionMeal:
		if params.MealType == nil || !models.KnownMealType(*params.MealType) {
			return nil, fmt.Errorf("%w: meal competitions need a meal type", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown competition type %q", ErrInvalidInput, params.CompetitionType)
	}

	if errMember := s.requireMembership(ctx, s.db, params.GroupID, params.CreatorID); errMember != nil {
		return nil, errMember
	}

	endTime, errEnd := s.deriveEndTime(params)
	if errEnd != nil {
		return nil, errEnd
	}

	record := models.Stake{
		GroupID:         params.GroupID,
		CreatorID:       params.CreatorID,
		CompetitionType: params.CompetitionType,
		MealType:        params.MealType,
		StakeAmount:     params.Amount,
		StartTime:       params.StartTime,
		EndTime:         endTime,
		Status:          models.StakeStatusActive,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&record).Error; errCreate != nil {
			return fmt.Errorf("stake: create: %w", errCreate)
		}
		participant := models.StakeParticipant{
			StakeID: record.ID,
			UserID:  params.CreatorID,
			Amount:  params.Amount,
		}
		if errCreate := tx.Create(&participant).Error; errCreate != nil {
			return fmt.Errorf("stake: enroll creator: %w", errCreate)
		}
		if errPool := tx.Model(&models.Stake{}).Where("id = ?", record.ID).
			Update("total_pool", gorm.Expr("total_pool + ?", params.Amount)).Error; errPool != nil {
			return fmt.Errorf("stake: seed pool: %w", errPool)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	record.TotalPool = params.Amount
	return &record, nil
}

// deriveEndTime computes the stake end from the competition type.
//
// Daily stakes run exactly 24 hours. Meal stakes close with the configured
// window on the start date, or start+2h when no window is configured.
func (s *Service) deriveEndTime(params CreateParams) (time.Time, error) {
	if params.CompetitionType == models.CompetitionDaily {
		return params.StartTime.Add(24 * time.Hour), nil
	}

	resolution, errResolve := mealwindow.Resolve(s.db, *params.MealType, params.StartTime)
	if errResolve != nil {
		if errors.Is(errResolve, mealwindow.ErrConfigurationMissing) {
			return params.StartTime.Add(mealwindow.FallbackDuration()), nil
		}
		return time.Time{}, errResolve
	}
	return resolution.WindowEnd, nil
}

// Join adds a user to an active stake and grows the pool atomically.
func (s *Service) Join(ctx context.Context, stakeID, userID uint64, amount float64) (*models.StakeParticipant, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	var participant models.StakeParticipant
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Stake
		if errFind := tx.First(&record, stakeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("stake: load: %w", errFind)
		}
		if record.Status != models.StakeStatusActive || !s.nowFn().Before(record.EndTime) {
			return ErrStakeClosed
		}
		if errMember := s.requireMembership(ctx, tx, record.GroupID, userID); errMember != nil {
			return errMember
		}

		var existing models.StakeParticipant
		errExisting := tx.Where("stake_id = ? AND user_id = ?", stakeID, userID).First(&existing).Error
		if errExisting == nil {
			return ErrAlreadyJoined
		}
		if !errors.Is(errExisting, gorm.ErrRecordNotFound) {
			return fmt.Errorf("stake: check participant: %w", errExisting)
		}

		participant = models.StakeParticipant{
			StakeID: stakeID,
			UserID:  userID,
			Amount:  amount,
		}
		if errCreate := tx.Create(&participant).Error; errCreate != nil {
			return fmt.Errorf("stake: join: %w", errCreate)
		}
		if errPool := tx.Model(&models.Stake{}).Where("id = ?", stakeID).
			Update("total_pool", gorm.Expr("total_pool + ?", amount)).Error; errPool != nil {
			return fmt.Errorf("stake: grow pool: %w", errPool)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &participant, nil
}

// Leave removes a participant before the stake starts and shrinks the pool.
// The stake is cancelled when the last participant leaves.
func (s *Service) Leave(ctx context.Context, stakeID, userID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Stake
		if errFind := tx.First(&record, stakeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("stake: load: %w", errFind)
		}
		if record.Status != models.StakeStatusActive || !s.nowFn().Before(record.StartTime) {
			return ErrTooLateToLeave
		}

		var participant models.StakeParticipant
		errFind := tx.Where("stake_id = ? AND user_id = ?", stakeID, userID).First(&participant).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("stake: load participant: %w", errFind)
		}

		if errDelete := tx.Delete(&participant).Error; errDelete != nil {
			return fmt.Errorf("stake: leave: %w", errDelete)
		}
		if errPool := tx.Model(&models.Stake{}).Where("id = ?", stakeID).
			Update("total_pool", gorm.Expr("total_pool - ?", participant.Amount)).Error; errPool != nil {
			return fmt.Errorf("stake: shrink pool: %w", errPool)
		}

		var remaining int64
		if errCount := tx.Model(&models.StakeParticipant{}).Where("stake_id = ?", stakeID).Count(&remaining).Error; errCount != nil {
			return fmt.Errorf("stake: count participants: %w", errCount)
		}
		if remaining == 0 {
			if errCancel := tx.Model(&models.Stake{}).Where("id = ?", stakeID).
				Update("status", models.StakeStatusCancelled).Error; errCancel != nil {
				return fmt.Errorf("stake: cancel empty stake: %w", errCancel)
			}
		}
		return nil
	})
}

// FinalizeResult reports the outcome of stake finalization.
type FinalizeResult struct {
	StakeID        uint64
	WinnerID       *uint64
	WinnerUsername string
	TotalPool      float64
}

// Finalize completes an ended stake and records the winner.
//
// The winner is the qualified participant with the most calories tracked,
// ties broken by earliest join. A stake with no qualified participant still
// completes, with no winner.
func (s *Service) Finalize(ctx context.Context, stakeID uint64) (*FinalizeResult, error) {
	var result FinalizeResult
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Stake
		if errFind := tx.First(&record, stakeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("stake: load: %w", errFind)
		}
		if record.Status != models.StakeStatusActive || s.nowFn().Before(record.EndTime) {
			return ErrNotReady
		}

		result = FinalizeResult{StakeID: stakeID, TotalPool: record.TotalPool}

		var winner models.StakeParticipant
		errWinner := tx.Where("stake_id = ? AND is_qualified = ?", stakeID, true).
			Order("calories_tracked DESC, joined_at ASC").
			First(&winner).Error
		if errWinner != nil && !errors.Is(errWinner, gorm.ErrRecordNotFound) {
			return fmt.Errorf("stake: pick winner: %w", errWinner)
		}

		updates := map[string]any{"status": models.StakeStatusCompleted}
		if errWinner == nil {
			winnerID := winner.UserID
			result.WinnerID = &winnerID
			updates["winner_id"] = winnerID

			var user models.User
			if errUser := tx.First(&user, winnerID).Error; errUser == nil {
				result.WinnerUsername = user.Username
			}
		}
		if errUpdate := tx.Model(&models.Stake{}).Where("id = ?", stakeID).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("stake: complete: %w", errUpdate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &result, nil
}

// ListFilter narrows stake listing.
type ListFilter struct {
	GroupID *uint64
	UserID  *uint64
	Status  *models.StakeStatus
}

// List returns stakes matching the filter, newest first, with participants.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Stake, error) {
	q := s.db.WithContext(ctx).Model(&models.Stake{}).Preload("Participants")
	if filter.GroupID != nil {
		q = q.Where("group_id = ?", *filter.GroupID)
	}
	if filter.UserID != nil {
		q = q.Where("id IN (?)", s.db.Model(&models.StakeParticipant{}).
			Select("stake_id").Where("user_id = ?", *filter.UserID))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	var rows []models.Stake
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("stake: list: %w", errFind)
	}
	return rows, nil
}

// Get returns one stake with its participants.
func (s *Service) Get(ctx context.Context, stakeID uint64) (*models.Stake, error) {
	var record models.Stake
	errFind := s.db.WithContext(ctx).Preload("Participants").First(&record, stakeID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stake: load: %w", errFind)
	}
	return &record, nil
}

func (s *Service) requireMembership(ctx context.Context, tx *gorm.DB, groupID, userID uint64) error {
	var membership models.GroupMember
	errFind := tx.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&membership).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrNotAuthorized
		}
		return fmt.Errorf("stake: check membership: %w", errFind)
	}
	return nil
}
