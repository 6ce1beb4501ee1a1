package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fitaichain/fitchain/internal/models"
	"github.com/fitaichain/fitchain/internal/stake"

	"github.com/gin-gonic/gin"
)

// StakeHandler manages stake lifecycle endpoints.
type StakeHandler struct {
	svc *stake.Service
}

// NewStakeHandler constructs a StakeHandler.
func NewStakeHandler(svc *stake.Service) *StakeHandler {
	return &StakeHandler{svc: svc}
}

// createStakeRequest defines the request body for stake creation.
type createStakeRequest struct {
	GroupID         uint64     `json:"group_id"`
	CreatorID       uint64     `json:"creator_id"`
	CompetitionType string     `json:"competition_type"`
	MealType        *string    `json:"meal_type"`
	StakeAmount     float64    `json:"stake_amount"`
	StartTime       *time.Time `json:"start_time"`
}

// Create opens a new stake.
func (h *StakeHandler) Create(c *gin.Context) {
	var body createStakeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.GroupID == 0 || body.CreatorID == 0 {
		respondError(c, http.StatusBadRequest, "missing group_id or creator_id")
		return
	}
	if body.StakeAmount <= 0 {
		respondError(c, http.StatusBadRequest, "stake_amount must be positive")
		return
	}
	startTime := time.Now().UTC()
	if body.StartTime != nil {
		startTime = *body.StartTime
	}

	params := stake.CreateParams{
		GroupID:         body.GroupID,
		CreatorID:       body.CreatorID,
		CompetitionType: models.CompetitionType(strings.TrimSpace(body.CompetitionType)),
		Amount:          body.StakeAmount,
		StartTime:       startTime,
	}
	if body.MealType != nil {
		mealType := models.MealType(strings.TrimSpace(*body.MealType))
		params.MealType = &mealType
	}

	record, errCreate := h.svc.Create(c.Request.Context(), params)
	if errCreate != nil {
		respondServiceError(c, errCreate)
		return
	}
	respondData(c, http.StatusCreated, record)
}

// List returns stakes filtered by group, user, or ID.
func (h *StakeHandler) List(c *gin.Context) {
	if stakeIDQ := strings.TrimSpace(c.Query("stakeId")); stakeIDQ != "" {
		stakeID, errParse := strconv.ParseUint(stakeIDQ, 10, 64)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "invalid stakeId")
			return
		}
		record, errGet := h.svc.Get(c.Request.Context(), stakeID)
		if errGet != nil {
			respondServiceError(c, errGet)
			return
		}
		respondData(c, http.StatusOK, record)
		return
	}

	var filter stake.ListFilter
	if groupIDQ := strings.TrimSpace(c.Query("groupId")); groupIDQ != "" {
		groupID, errParse := strconv.ParseUint(groupIDQ, 10, 64)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "invalid groupId")
			return
		}
		filter.GroupID = &groupID
	}
	if userIDQ := strings.TrimSpace(c.Query("userId")); userIDQ != "" {
		userID, errParse := strconv.ParseUint(userIDQ, 10, 64)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "invalid userId")
			return
		}
		filter.UserID = &userID
	}
	if statusQ := strings.TrimSpace(c.Query("status")); statusQ != "" {
		status := models.StakeStatus(statusQ)
		filter.Status = &status
	}

	rows, errList := h.svc.List(c.Request.Context(), filter)
	if errList != nil {
		respondServiceError(c, errList)
		return
	}
	respondData(c, http.StatusOK, rows)
}

// joinStakeRequest defines the request body for joining a stake.
type joinStakeRequest struct {
	StakeID uint64  `json:"stake_id"`
	UserID  uint64  `json:"user_id"`
	Amount  float64 `json:"amount"`
}

// Join adds a participant to an active stake.
func (h *StakeHandler) Join(c *gin.Context) {
	var body joinStakeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.StakeID == 0 || body.UserID == 0 {
		respondError(c, http.StatusBadRequest, "missing stake_id or user_id")
		return
	}

	participant, errJoin := h.svc.Join(c.Request.Context(), body.StakeID, body.UserID, body.Amount)
	if errJoin != nil {
		respondServiceError(c, errJoin)
		return
	}
	respondData(c, http.StatusCreated, participant)
}

// Leave removes a participant before the stake starts.
func (h *StakeHandler) Leave(c *gin.Context) {
	stakeID, errStake := strconv.ParseUint(strings.TrimSpace(c.Query("stakeId")), 10, 64)
	if errStake != nil {
		respondError(c, http.StatusBadRequest, "invalid stakeId")
		return
	}
	userID, errUser := strconv.ParseUint(strings.TrimSpace(c.Query("userId")), 10, 64)
	if errUser != nil {
		respondError(c, http.StatusBadRequest, "invalid userId")
		return
	}

	if errLeave := h.svc.Leave(c.Request.Context(), stakeID, userID); errLeave != nil {
		respondServiceError(c, errLeave)
		return
	}
	respondOK(c)
}
