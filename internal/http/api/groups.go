package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fitaichain/fitchain/internal/group"

	"github.com/gin-gonic/gin"
)

// GroupHandler manages group membership endpoints.
type GroupHandler struct {
	svc *group.Service
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(svc *group.Service) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// createGroupRequest defines the request body for group creation.
type createGroupRequest struct {
	Name       string `json:"name"`
	CreatorID  uint64 `json:"creator_id"`
	IsPrivate  bool   `json:"is_private"`
	MaxMembers int    `json:"max_members"`
}

// Create opens a new group with the creator as admin.
func (h *GroupHandler) Create(c *gin.Context) {
	var body createGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.CreatorID == 0 {
		respondError(c, http.StatusBadRequest, "missing creator_id")
		return
	}

	record, errCreate := h.svc.Create(c.Request.Context(), group.CreateParams{
		Name:       body.Name,
		CreatorID:  body.CreatorID,
		IsPrivate:  body.IsPrivate,
		MaxMembers: body.MaxMembers,
	})
	if errCreate != nil {
		respondServiceError(c, errCreate)
		return
	}
	respondData(c, http.StatusCreated, record)
}

// List searches public groups by name.
func (h *GroupHandler) List(c *gin.Context) {
	limit := 0
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		parsed, errParse := strconv.Atoi(limitQ)
		if errParse != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	rows, errSearch := h.svc.Search(c.Request.Context(), c.Query("search"), limit)
	if errSearch != nil {
		respondServiceError(c, errSearch)
		return
	}
	respondData(c, http.StatusOK, rows)
}

// Get returns one group with its members.
func (h *GroupHandler) Get(c *gin.Context) {
	groupID, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}
	record, errGet := h.svc.Get(c.Request.Context(), groupID)
	if errGet != nil {
		respondServiceError(c, errGet)
		return
	}
	respondData(c, http.StatusOK, record)
}

// joinGroupRequest defines the request body for joining a group.
type joinGroupRequest struct {
	GroupID uint64 `json:"group_id"`
	UserID  uint64 `json:"user_id"`
}

// Join adds a user to a group.
func (h *GroupHandler) Join(c *gin.Context) {
	var body joinGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.GroupID == 0 || body.UserID == 0 {
		respondError(c, http.StatusBadRequest, "missing group_id or user_id")
		return
	}

	membership, errJoin := h.svc.Join(c.Request.Context(), body.GroupID, body.UserID)
	if errJoin != nil {
		respondServiceError(c, errJoin)
		return
	}
	respondData(c, http.StatusCreated, membership)
}

// Leave removes a user from a group.
func (h *GroupHandler) Leave(c *gin.Context) {
	groupID, errGroup := strconv.ParseUint(strings.TrimSpace(c.Query("groupId")), 10, 64)
	if errGroup != nil {
		respondError(c, http.StatusBadRequest, "invalid groupId")
		return
	}
	userID, errUser := strconv.ParseUint(strings.TrimSpace(c.Query("userId")), 10, 64)
	if errUser != nil {
		respondError(c, http.StatusBadRequest, "invalid userId")
		return
	}

	if errLeave := h.svc.Leave(c.Request.Context(), groupID, userID); errLeave != nil {
		respondServiceError(c, errLeave)
		return
	}
	respondOK(c)
}
