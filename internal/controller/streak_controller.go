package controller

import (
	"errors"

	"learning_streak_backend/internal/service"
	"learning_streak_backend/internal/util"
	"learning_streak_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreakController struct {
	StreakService *service.StreakService
	QueryService  *service.QueryService
}

func NewStreakController(streakService *service.StreakService, queryService *service.QueryService) *StreakController {
	return &StreakController{StreakService: streakService, QueryService: queryService}
}

// respondError 将服务层错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUnauthenticated):
		util.Unauthorized(ctx)
	case errors.Is(err, util.ErrInvalidWindow):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrStorage):
		logger.Log.Warn("storage unavailable", zap.String("path", ctx.FullPath()), zap.Error(err))
		util.ServiceUnavailable(ctx, "Storage temporarily unavailable, please try again")
	default:
		util.LogInternalError(ctx, err)
	}
}

// windowDays 解析 days 参数，缺省时使用配置的默认窗口
func (c *StreakController) windowDays(ctx *gin.Context) (int, bool) {
	days, err := util.ParseIntDefault(ctx.Query("days"), c.QueryService.DefaultWindow())
	if err != nil {
		util.BadRequest(ctx, "days must be an integer")
		return 0, false
	}
	return days, true
}

// @Summary 记录今日学习
// @Description 记录当前用户今天的学习活动，更新连续天数并发放达到里程碑的徽章。同一天重复调用不会改变状态
// @Tags 连续学习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.RecordResult}
// @Failure 401 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/streaks/update [post]
func (c *StreakController) UpdateStreak(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.StreakService.RecordActivity(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取我的连续学习状态
// @Tags 连续学习
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.StreakSnapshot}
// @Router /api/streaks/my-streak [get]
func (c *StreakController) GetMyStreak(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	snapshot, err := c.QueryService.GetStreak(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, snapshot)
}

// @Summary 获取我的徽章
// @Description 返回已获得的徽章（含获得时间）和完整徽章目录
// @Tags 连续学习
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.BadgeStatus}
// @Router /api/streaks/my-badges [get]
func (c *StreakController) GetMyBadges(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.QueryService.GetBadgeStatus(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, status)
}

// @Summary 获取学习日历
// @Tags 连续学习
// @Produce json
// @Security BearerAuth
// @Param days query int false "窗口天数" default(90)
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/streaks/history [get]
func (c *StreakController) GetHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	days, ok := c.windowDays(ctx)
	if !ok {
		return
	}

	entries, err := c.QueryService.GetHistory(ctx.Request.Context(), user.UserID, days)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}

// @Summary 获取学习统计
// @Description 窗口内的活跃天数、缺勤天数、活跃率和本月活跃天数
// @Tags 连续学习
// @Produce json
// @Security BearerAuth
// @Param days query int false "窗口天数" default(90)
// @Success 200 {object} util.Response{data=service.HistorySummary}
// @Router /api/streaks/summary [get]
func (c *StreakController) GetSummary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	days, ok := c.windowDays(ctx)
	if !ok {
		return
	}

	summary, err := c.QueryService.GetSummary(ctx.Request.Context(), user.UserID, days)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// @Summary 徽章目录
// @Tags 连续学习
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/streaks/badges [get]
func (c *StreakController) GetBadgeCatalog(ctx *gin.Context) {
	ctx.Header("Cache-Control", "public, max-age=3600")
	util.Success(ctx, c.QueryService.BadgeCatalog())
}
