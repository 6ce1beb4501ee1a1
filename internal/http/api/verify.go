package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fitaichain/fitchain/internal/config"
	"github.com/fitaichain/fitchain/internal/identity"
	"github.com/fitaichain/fitchain/internal/models"
	"github.com/fitaichain/fitchain/internal/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerifyHandler exchanges identity proofs for accounts and session tokens.
type VerifyHandler struct {
	db       *gorm.DB
	verifier identity.Verifier
	jwtCfg   config.JWTConfig
}

// NewVerifyHandler constructs a VerifyHandler.
func NewVerifyHandler(db *gorm.DB, verifier identity.Verifier, jwtCfg config.JWTConfig) *VerifyHandler {
	return &VerifyHandler{db: db, verifier: verifier, jwtCfg: jwtCfg}
}

// verifyRequest defines the request body for identity verification.
type verifyRequest struct {
	Username string         `json:"username"`
	Proof    identity.Proof `json:"proof"`
}

// Verify checks a World ID proof, upserting the account keyed by nullifier.
//
// An existing guest account with the same username is upgraded in place;
// verification failure is terminal for the request.
func (h *VerifyHandler) Verify(c *gin.Context) {
	var body verifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}

	verification, errVerify := h.verifier.Verify(c.Request.Context(), body.Proof)
	if errVerify != nil {
		if errors.Is(errVerify, identity.ErrVerificationFailed) {
			detail := verification.ErrorDetail
			if detail == "" {
				detail = "verification rejected"
			}
			respondError(c, http.StatusForbidden, detail)
			return
		}
		respondError(c, http.StatusServiceUnavailable, "identity provider unavailable")
		return
	}

	ctx := c.Request.Context()
	nullifier := verification.NullifierHash

	var user models.User
	errFind := h.db.WithContext(ctx).Where("nullifier_hash = ?", nullifier).First(&user).Error
	switch {
	case errFind == nil:
		// Returning verified human.
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		username := strings.TrimSpace(body.Username)
		var guest models.User
		errGuest := h.db.WithContext(ctx).
			Where("username = ? AND verification_type = ?", username, models.VerificationGuest).
			First(&guest).Error
		if username != "" && errGuest == nil {
			guest.VerificationType = models.VerificationWorldID
			guest.NullifierHash = &nullifier
			if errSave := h.db.WithContext(ctx).Save(&guest).Error; errSave != nil {
				respondError(c, http.StatusInternalServerError, "upgrade account failed")
				return
			}
			user = guest
			break
		}
		if username == "" {
			username = "human-" + uuid.NewString()[:8]
		}
		user = models.User{
			Username:         username,
			VerificationType: models.VerificationWorldID,
			NullifierHash:    &nullifier,
		}
		if errCreate := h.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
			respondError(c, http.StatusConflict, "username already taken")
			return
		}
	default:
		respondError(c, http.StatusInternalServerError, "lookup failed")
		return
	}

	token, errToken := security.IssueUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, &user)
	if errToken != nil {
		respondError(c, http.StatusInternalServerError, "issue token failed")
		return
	}
	respondData(c, http.StatusOK, gin.H{"user": user, "token": token, "nullifier_hash": nullifier})
}

// guestRequest defines the request body for guest account creation.
type guestRequest struct {
	Username string `json:"username"`
}

// CreateGuest creates an unverified guest account and session.
func (h *VerifyHandler) CreateGuest(c *gin.Context) {
	var body guestRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		username = "guest-" + uuid.NewString()[:8]
	}

	user := models.User{
		Username:         username,
		VerificationType: models.VerificationGuest,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		respondError(c, http.StatusConflict, "username already taken")
		return
	}

	token, errToken := security.IssueUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, &user)
	if errToken != nil {
		respondError(c, http.StatusInternalServerError, "issue token failed")
		return
	}
	respondData(c, http.StatusCreated, gin.H{"user": user, "token": token})
}
