package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fitaichain/fitchain/internal/entry"
	"github.com/fitaichain/fitchain/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// FoodEntryHandler records food entries and triggers qualification checks.
type FoodEntryHandler struct {
	recorder *entry.Recorder
}

// NewFoodEntryHandler constructs a FoodEntryHandler.
func NewFoodEntryHandler(recorder *entry.Recorder) *FoodEntryHandler {
	return &FoodEntryHandler{recorder: recorder}
}

// createFoodEntryRequest defines the request body for entry creation.
type createFoodEntryRequest struct {
	UserID     uint64          `json:"user_id"`
	GroupID    *uint64         `json:"group_id"`
	StakeID    *uint64         `json:"stake_id"`
	FoodName   string          `json:"food_name"`
	Calories   int64           `json:"calories"`
	Confidence float64         `json:"confidence"`
	Nutrients  json.RawMessage `json:"nutrients"`
	ImageRef   string          `json:"image_ref"`
	MealType   *string         `json:"meal_type"`
}

// Create records one food entry.
func (h *FoodEntryHandler) Create(c *gin.Context) {
	var body createFoodEntryRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.UserID == 0 {
		respondError(c, http.StatusBadRequest, "missing user_id")
		return
	}
	if strings.TrimSpace(body.FoodName) == "" {
		respondError(c, http.StatusBadRequest, "missing food_name")
		return
	}
	if body.Calories < 0 {
		respondError(c, http.StatusBadRequest, "calories must not be negative")
		return
	}

	params := entry.RecordParams{
		UserID:     body.UserID,
		GroupID:    body.GroupID,
		StakeID:    body.StakeID,
		FoodName:   strings.TrimSpace(body.FoodName),
		Calories:   body.Calories,
		Confidence: body.Confidence,
		ImageRef:   strings.TrimSpace(body.ImageRef),
	}
	if len(body.Nutrients) > 0 {
		params.Nutrients = datatypes.JSON(body.Nutrients)
	}
	if body.MealType != nil {
		mealType := models.MealType(strings.TrimSpace(*body.MealType))
		if !models.KnownMealType(mealType) {
			respondError(c, http.StatusBadRequest, "unknown meal_type")
			return
		}
		params.MealType = &mealType
	}

	record, errRecord := h.recorder.Record(c.Request.Context(), params)
	if errRecord != nil {
		respondServiceError(c, errRecord)
		return
	}
	respondData(c, http.StatusCreated, record)
}
