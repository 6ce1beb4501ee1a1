package api

import (
	"github.com/fitaichain/fitchain/internal/config"
	"github.com/fitaichain/fitchain/internal/entry"
	"github.com/fitaichain/fitchain/internal/group"
	"github.com/fitaichain/fitchain/internal/identity"
	"github.com/fitaichain/fitchain/internal/leaderboard"
	"github.com/fitaichain/fitchain/internal/ratelimit"
	"github.com/fitaichain/fitchain/internal/recognition"
	"github.com/fitaichain/fitchain/internal/stake"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Per-minute limits for the abuse-prone endpoints.
const (
	analyzeRateLimit = 10
	verifyRateLimit  = 5
)

// Deps carries the wired collaborators for route registration.
type Deps struct {
	DB          *gorm.DB
	JWT         config.JWTConfig
	Verifier    identity.Verifier
	Analyzer    recognition.Analyzer
	RateLimiter *ratelimit.Manager
}

// RegisterRoutes registers all engine routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	stakeSvc := stake.NewService(deps.DB, nil)
	groupSvc := group.NewService(deps.DB)
	recorder := entry.NewRecorder(deps.DB, nil)
	aggregator := leaderboard.NewAggregator(deps.DB)

	v1 := r.Group("/v1")
	v1.Use(defaultRateLimitMiddleware(deps.RateLimiter))

	verifyHandler := NewVerifyHandler(deps.DB, deps.Verifier, deps.JWT)
	v1.POST("/verify", rateLimitMiddleware(deps.RateLimiter, "verify", verifyRateLimit), verifyHandler.Verify)
	v1.POST("/users/guest", verifyHandler.CreateGuest)

	analyzeHandler := NewAnalyzeHandler(deps.Analyzer)
	v1.POST("/analyze", rateLimitMiddleware(deps.RateLimiter, "analyze", analyzeRateLimit), analyzeHandler.Analyze)

	authed := v1.Group("")
	authed.Use(userAuthMiddleware(deps.JWT))

	groupHandler := NewGroupHandler(groupSvc)
	authed.POST("/groups", groupHandler.Create)
	authed.GET("/groups", groupHandler.List)
	authed.GET("/groups/:id", groupHandler.Get)
	authed.POST("/groups/join", groupHandler.Join)
	authed.DELETE("/groups/leave", groupHandler.Leave)

	stakeHandler := NewStakeHandler(stakeSvc)
	authed.POST("/stakes", stakeHandler.Create)
	authed.GET("/stakes", stakeHandler.List)
	authed.POST("/stakes/join", stakeHandler.Join)
	authed.DELETE("/stakes/join", stakeHandler.Leave)

	leaderboardHandler := NewLeaderboardHandler(aggregator, stakeSvc)
	authed.GET("/leaderboards", leaderboardHandler.Get)
	authed.POST("/leaderboards", leaderboardHandler.Finalize)

	foodEntryHandler := NewFoodEntryHandler(recorder)
	authed.POST("/food-entries", foodEntryHandler.Create)

	mealWindowHandler := NewMealWindowHandler(deps.DB)
	authed.GET("/meal-windows", mealWindowHandler.List)
	authed.PUT("/meal-windows", mealWindowHandler.Update)
}
