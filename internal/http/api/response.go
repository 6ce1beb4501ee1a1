package api

import (
	"errors"
	"net/http"

	"github.com/fitaichain/fitchain/internal/entry"
	"github.com/fitaichain/fitchain/internal/group"
	"github.com/fitaichain/fitchain/internal/leaderboard"
	"github.com/fitaichain/fitchain/internal/mealwindow"
	"github.com/fitaichain/fitchain/internal/stake"

	"github.com/gin-gonic/gin"
)

// respondData writes the success envelope with a payload.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondOK writes the success envelope without a payload.
func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondError writes the failure envelope.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondServiceError maps service sentinel errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stake.ErrInvalidInput),
		errors.Is(err, group.ErrInvalidInput),
		errors.Is(err, mealwindow.ErrUnknownMealType),
		errors.Is(err, leaderboard.ErrUnknownTimeframe):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, stake.ErrNotAuthorized):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, stake.ErrNotFound),
		errors.Is(err, group.ErrNotFound),
		errors.Is(err, entry.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, stake.ErrAlreadyJoined),
		errors.Is(err, stake.ErrStakeClosed),
		errors.Is(err, stake.ErrTooLateToLeave),
		errors.Is(err, stake.ErrNotReady),
		errors.Is(err, group.ErrAlreadyMember),
		errors.Is(err, group.ErrGroupFull):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
