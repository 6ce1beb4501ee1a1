package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fitaichain/fitchain/internal/leaderboard"
	"github.com/fitaichain/fitchain/internal/stake"

	"github.com/gin-gonic/gin"
)

// LeaderboardHandler serves ranked views and stake finalization.
type LeaderboardHandler struct {
	agg      *leaderboard.Aggregator
	stakeSvc *stake.Service
}

// NewLeaderboardHandler constructs a LeaderboardHandler.
func NewLeaderboardHandler(agg *leaderboard.Aggregator, stakeSvc *stake.Service) *LeaderboardHandler {
	return &LeaderboardHandler{agg: agg, stakeSvc: stakeSvc}
}

// Get returns a stake or group leaderboard.
func (h *LeaderboardHandler) Get(c *gin.Context) {
	if stakeIDQ := strings.TrimSpace(c.Query("stakeId")); stakeIDQ != "" {
		stakeID, errParse := strconv.ParseUint(stakeIDQ, 10, 64)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "invalid stakeId")
			return
		}
		entries, errBoard := h.agg.Stake(c.Request.Context(), stakeID)
		if errBoard != nil {
			respondServiceError(c, errBoard)
			return
		}
		respondData(c, http.StatusOK, entries)
		return
	}

	groupIDQ := strings.TrimSpace(c.Query("groupId"))
	if groupIDQ == "" {
		respondError(c, http.StatusBadRequest, "missing groupId or stakeId")
		return
	}
	groupID, errParse := strconv.ParseUint(groupIDQ, 10, 64)
	if errParse != nil {
		respondError(c, http.StatusBadRequest, "invalid groupId")
		return
	}

	timeframe := leaderboard.Timeframe(strings.TrimSpace(c.DefaultQuery("type", string(leaderboard.TimeframeDaily))))
	date := time.Now().UTC()
	if dateQ := strings.TrimSpace(c.Query("date")); dateQ != "" {
		parsed, errDate := time.Parse("2006-01-02", dateQ)
		if errDate != nil {
			respondError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	entries, errBoard := h.agg.Group(c.Request.Context(), groupID, timeframe, date)
	if errBoard != nil {
		respondServiceError(c, errBoard)
		return
	}
	respondData(c, http.StatusOK, entries)
}

// finalizeRequest defines the request body for stake finalization.
type finalizeRequest struct {
	StakeID uint64 `json:"stake_id"`
}

// Finalize completes an ended stake and reports the winner.
func (h *LeaderboardHandler) Finalize(c *gin.Context) {
	var body finalizeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.StakeID == 0 {
		respondError(c, http.StatusBadRequest, "missing stake_id")
		return
	}

	result, errFinalize := h.stakeSvc.Finalize(c.Request.Context(), body.StakeID)
	if errFinalize != nil {
		respondServiceError(c, errFinalize)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"stake_id":        result.StakeID,
		"winner_id":       result.WinnerID,
		"winner_username": result.WinnerUsername,
		"total_pool":      result.TotalPool,
	})
}
