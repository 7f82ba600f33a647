package app

import (
	"learning_streak_backend/internal/config"
	"learning_streak_backend/internal/middleware"
	"learning_streak_backend/pkg/monitoring"
	"learning_streak_backend/pkg/security"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 先尝试解析 token，限流按用户，未登录按 IP
	api := router.Group("/api")
	api.Use(
		middleware.TryAuthMiddleware(cfg.JWT.Secret),
		security.RateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
	)

	// 1. 公共路由(无需登录)
	api.GET("/health", c.health.HealthCheck)
	api.GET("/streaks/badges", c.streak.GetBadgeCatalog)

	// 2. 需要授权的路由
	streaks := api.Group("/streaks")
	streaks.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		streaks.POST("/update", c.streak.UpdateStreak)
		streaks.GET("/my-streak", c.streak.GetMyStreak)
		streaks.GET("/my-badges", c.streak.GetMyBadges)
		streaks.GET("/history", c.streak.GetHistory)
		streaks.GET("/summary", c.streak.GetSummary)
	}
}
