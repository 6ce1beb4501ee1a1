package api

import (
	"net/http"
	"strings"

	"github.com/fitaichain/fitchain/internal/config"
	"github.com/fitaichain/fitchain/internal/ratelimit"
	"github.com/fitaichain/fitchain/internal/security"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// contextUserIDKey carries the authenticated user ID through gin context.
const contextUserIDKey = "auth_user_id"

// userAuthMiddleware validates session JWTs and stores the user ID.
func userAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid authorization format"})
			return
		}
		claims, errParse := security.ParseUserToken(jwtCfg.Secret, strings.TrimSpace(token))
		if errParse != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
			return
		}
		c.Set(contextUserIDKey, claims.UserID)
		c.Next()
	}
}

// rateLimitMiddleware enforces a per-minute fixed-window limit keyed by
// client IP. Advisory abuse mitigation: errors fail open.
func rateLimitMiddleware(manager *ratelimit.Manager, route string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforceRateLimit(c, manager, route, limit)
	}
}

// defaultRateLimitMiddleware applies the settings-configured per-minute limit
// across all routes. A zero limit disables the check.
func defaultRateLimitMiddleware(manager *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforceRateLimit(c, manager, "global", ratelimit.DefaultSettingsLimit())
	}
}

func enforceRateLimit(c *gin.Context, manager *ratelimit.Manager, route string, limit int) {
	if manager == nil || limit <= 0 {
		c.Next()
		return
	}
	key := ratelimit.ClientKey(route, c.ClientIP())
	result, errAllow := manager.Allow(c.Request.Context(), key, limit)
	if errAllow != nil {
		log.WithError(errAllow).Warn("rate limit check failed")
		c.Next()
		return
	}
	if !result.Allowed {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "rate limit exceeded"})
		return
	}
	c.Next()
}
