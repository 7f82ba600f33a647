package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/repository"
	"learning_streak_backend/internal/util"
	"learning_streak_backend/pkg/logger"
	"learning_streak_backend/pkg/tracing"

	"go.uber.org/zap"
)

const (
	DefaultHistoryDays = 90
	MaxHistoryDays     = 366
)

// StreakSnapshot 当前连续学习状态，没有记录时各项为零值
type StreakSnapshot struct {
	CurrentStreak   int                    `json:"currentStreak"`
	LongestStreak   int                    `json:"longestStreak"`
	TotalDaysActive int                    `json:"totalDaysActive"`
	LastActiveDay   *time.Time             `json:"lastActiveDay"`
	NextBadge       *model.BadgeDefinition `json:"nextBadge,omitempty"`
	DaysToNextBadge int                    `json:"daysToNextBadge,omitempty"`
}

type BadgeStatus struct {
	Earned []model.EarnedBadge      `json:"earnedBadges"`
	All    []model.BadgeDefinition `json:"allBadges"`
}

// HistorySummary 日历下方的统计
type HistorySummary struct {
	WindowDays       int `json:"windowDays"`
	ActiveDays       int `json:"activeDays"`
	MissedDays       int `json:"missedDays"`
	ActivityRate     int `json:"activityRate"`
	CurrentMonthDays int `json:"currentMonthDays"`
}

// QueryService 看板使用的只读查询，不加锁，可能读到略旧的数据
type QueryService struct {
	Store    repository.StreakStore
	Catalog  []model.BadgeDefinition
	Cache    *StreakCache
	Location *time.Location
	now      func() time.Time

	mu          sync.RWMutex
	defaultDays int
	maxDays     int
}

func NewQueryService(store repository.StreakStore, catalog []model.BadgeDefinition, cache *StreakCache) *QueryService {
	return &QueryService{
		Store:       store,
		Catalog:     catalog,
		Cache:       cache,
		Location:    time.Local,
		now:         time.Now,
		defaultDays: DefaultHistoryDays,
		maxDays:     MaxHistoryDays,
	}
}

func (s *QueryService) WithClock(now func() time.Time, loc *time.Location) *QueryService {
	s.now = now
	if loc == nil {
		loc = time.Local
	}
	s.Location = loc
	return s
}

// SetWindowLimits 配置热更新时调用，非法值忽略
func (s *QueryService) SetWindowLimits(defaultDays, maxDays int) {
	if defaultDays <= 0 || maxDays <= 0 || defaultDays > maxDays {
		logger.Log.Warn("ignoring invalid history window limits",
			zap.Int("default", defaultDays), zap.Int("max", maxDays))
		return
	}
	s.mu.Lock()
	s.defaultDays = defaultDays
	s.maxDays = maxDays
	s.mu.Unlock()
}

func (s *QueryService) DefaultWindow() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultDays
}

// ResolveWindow 校验窗口天数，超过上限时截断
func (s *QueryService) ResolveWindow(windowDays int) (int, error) {
	if windowDays <= 0 {
		return 0, util.ErrInvalidWindow
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if windowDays > s.maxDays {
		return s.maxDays, nil
	}
	return windowDays, nil
}

func (s *QueryService) loadStreak(ctx context.Context, userID uint) (*model.UserStreak, error) {
	if cached, ok := s.Cache.Get(userID); ok {
		return cached, nil
	}
	version := s.Cache.Version()
	streak, err := s.Store.FindStreak(ctx, userID)
	if errors.Is(err, util.ErrStreakNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, util.WrapStorage("load streak", err)
	}
	s.Cache.Add(streak, version)
	return streak, nil
}

func (s *QueryService) GetStreak(ctx context.Context, userID uint) (snapshot *StreakSnapshot, err error) {
	ctx, span := tracing.StartUserSpan(ctx, "QueryService.GetStreak", userID)
	defer func() { tracing.EndWithError(span, err) }()

	streak, err := s.loadStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot = &StreakSnapshot{}
	if streak != nil {
		snapshot.CurrentStreak = streak.CurrentStreak
		snapshot.LongestStreak = streak.LongestStreak
		snapshot.TotalDaysActive = streak.TotalDaysActive
		if streak.LastActiveDay != nil {
			day := util.NormalizeDay(*streak.LastActiveDay, s.Location)
			snapshot.LastActiveDay = &day
		}
	}

	if next, ok := model.NextBadge(s.Catalog, snapshot.CurrentStreak); ok {
		snapshot.NextBadge = &next
		snapshot.DaysToNextBadge = next.MilestoneDays - snapshot.CurrentStreak
	}

	return snapshot, nil
}

func (s *QueryService) GetBadgeStatus(ctx context.Context, userID uint) (status *BadgeStatus, err error) {
	ctx, span := tracing.StartUserSpan(ctx, "QueryService.GetBadgeStatus", userID)
	defer func() { tracing.EndWithError(span, err) }()

	awards, err := s.Store.ListBadgeAwards(ctx, userID)
	if err != nil {
		return nil, util.WrapStorage("list badge awards", err)
	}

	earnedAt := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		earnedAt[a.BadgeName] = a.EarnedAt
	}

	earned := make([]model.EarnedBadge, 0, len(awards))
	for _, def := range s.Catalog {
		if at, ok := earnedAt[def.Name]; ok {
			earned = append(earned, model.EarnedBadge{BadgeDefinition: def, EarnedAt: at})
			delete(earnedAt, def.Name)
		}
	}
	for name := range earnedAt {
		logger.Log.Warn("awarded badge missing from catalog", zap.Uint("userId", userID), zap.String("badge", name))
	}

	return &BadgeStatus{
		Earned: earned,
		All:    s.BadgeCatalog(),
	}, nil
}

func (s *QueryService) BadgeCatalog() []model.BadgeDefinition {
	return append([]model.BadgeDefinition{}, s.Catalog...)
}

// GetHistory 返回 [today-windowDays, today] 内的活动记录，按日期升序，不补齐缺失的日期
func (s *QueryService) GetHistory(ctx context.Context, userID uint, windowDays int) ([]model.StreakActivity, error) {
	window, err := s.ResolveWindow(windowDays)
	if err != nil {
		return nil, err
	}
	return s.history(ctx, userID, window)
}

// history window 已经过 ResolveWindow
func (s *QueryService) history(ctx context.Context, userID uint, window int) (entries []model.StreakActivity, err error) {
	ctx, span := tracing.StartUserSpan(ctx, "QueryService.GetHistory", userID)
	defer func() { tracing.EndWithError(span, err) }()

	today := util.Today(s.now(), s.Location)
	from := today.AddDate(0, 0, -window)

	entries, err = s.Store.ListActivity(ctx, userID, from, today)
	if err != nil {
		return nil, util.WrapStorage("list activity", err)
	}
	for i := range entries {
		entries[i].ActivityDay = util.NormalizeDay(entries[i].ActivityDay, s.Location)
	}
	return entries, nil
}

func (s *QueryService) GetSummary(ctx context.Context, userID uint, windowDays int) (*HistorySummary, error) {
	// 窗口只解析一次，热更新不影响本次统计
	window, err := s.ResolveWindow(windowDays)
	if err != nil {
		return nil, err
	}
	entries, err := s.history(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	today := util.Today(s.now(), s.Location)
	summary := &HistorySummary{WindowDays: window}
	for _, e := range entries {
		if !e.WasActive {
			continue
		}
		summary.ActiveDays++
		if e.ActivityDay.Year() == today.Year() && e.ActivityDay.Month() == today.Month() {
			summary.CurrentMonthDays++
		}
	}

	summary.MissedDays = window - summary.ActiveDays
	if summary.MissedDays < 0 {
		summary.MissedDays = 0
	}
	if summary.ActiveDays > 0 {
		rate := int(math.Round(float64(summary.ActiveDays) * 100 / float64(window)))
		if rate > 100 {
			rate = 100
		}
		summary.ActivityRate = rate
	}

	return summary, nil
}
