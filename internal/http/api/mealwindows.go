package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fitaichain/fitchain/internal/mealwindow"
	"github.com/fitaichain/fitchain/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MealWindowHandler reads and updates meal window configuration.
type MealWindowHandler struct {
	db *gorm.DB
}

// NewMealWindowHandler constructs a MealWindowHandler.
func NewMealWindowHandler(db *gorm.DB) *MealWindowHandler {
	return &MealWindowHandler{db: db}
}

// List returns all active meal window rows.
func (h *MealWindowHandler) List(c *gin.Context) {
	var rows []models.MealWindow
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Order("start_hour ASC, start_minute ASC").
		Find(&rows).Error; errFind != nil {
		respondError(c, http.StatusInternalServerError, "list meal windows failed")
		return
	}
	respondData(c, http.StatusOK, rows)
}

// updateMealWindowRequest defines the request body for window updates.
type updateMealWindowRequest struct {
	MealType    string `json:"meal_type"`
	StartHour   *int   `json:"start_hour"`
	StartMinute *int   `json:"start_minute"`
	EndHour     *int   `json:"end_hour"`
	EndMinute   *int   `json:"end_minute"`
	MinImages   *int   `json:"min_images"`
}

// Update modifies the active window row for one meal type.
func (h *MealWindowHandler) Update(c *gin.Context) {
	var body updateMealWindowRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	mealType := models.MealType(strings.TrimSpace(body.MealType))
	if !models.KnownMealType(mealType) {
		respondError(c, http.StatusBadRequest, "unknown meal_type")
		return
	}

	ctx := c.Request.Context()
	var window models.MealWindow
	if errFind := h.db.WithContext(ctx).
		Where("meal_type = ? AND is_active = ?", mealType, true).
		First(&window).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "no active window for meal type")
			return
		}
		respondError(c, http.StatusInternalServerError, "load meal window failed")
		return
	}

	if body.StartHour != nil {
		window.StartHour = *body.StartHour
	}
	if body.StartMinute != nil {
		window.StartMinute = *body.StartMinute
	}
	if body.EndHour != nil {
		window.EndHour = *body.EndHour
	}
	if body.EndMinute != nil {
		window.EndMinute = *body.EndMinute
	}
	if body.MinImages != nil {
		if *body.MinImages < 1 {
			respondError(c, http.StatusBadRequest, "min_images must be at least 1")
			return
		}
		window.MinImages = *body.MinImages
	}

	if errBounds := mealwindow.ValidateBounds(window.StartHour, window.StartMinute, window.EndHour, window.EndMinute); errBounds != nil {
		respondError(c, http.StatusBadRequest, errBounds.Error())
		return
	}

	if errSave := h.db.WithContext(ctx).Save(&window).Error; errSave != nil {
		respondError(c, http.StatusInternalServerError, "update meal window failed")
		return
	}
	respondData(c, http.StatusOK, window)
}
