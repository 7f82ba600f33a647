package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/repository"
	"learning_streak_backend/internal/util"
	"learning_streak_backend/pkg/locker"
	"learning_streak_backend/pkg/logger"
	"learning_streak_backend/pkg/monitoring"
	"learning_streak_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RecordResult 一次打卡的结果
type RecordResult struct {
	Streak    *model.UserStreak       `json:"streak"`
	NewBadges []model.BadgeDefinition `json:"newBadges"`
	Status    model.StreakStatus      `json:"status"`
	Message   string                  `json:"message"`
}

// StreakService 连续学习状态机。同一用户的更新通过 Locker 串行化，
// 单次更新的所有写入在一个事务内完成。
type StreakService struct {
	Store    repository.StreakStore
	Locker   locker.Locker
	Awarder  *BadgeAwarder
	Cache    *StreakCache
	Location *time.Location
	now      func() time.Time
}

func NewStreakService(
	store repository.StreakStore,
	lk locker.Locker,
	awarder *BadgeAwarder,
	cache *StreakCache,
) *StreakService {
	return &StreakService{
		Store:    store,
		Locker:   lk,
		Awarder:  awarder,
		Cache:    cache,
		Location: time.Local,
		now:      time.Now,
	}
}

// WithClock 替换时钟和时区，loc 为 nil 时使用 time.Local
func (s *StreakService) WithClock(now func() time.Time, loc *time.Location) *StreakService {
	s.now = now
	if loc == nil {
		loc = time.Local
	}
	s.Location = loc
	return s
}

func streakLockKey(userID uint) string {
	return "streak:update:" + strconv.FormatUint(uint64(userID), 10)
}

func StatusMessage(status model.StreakStatus, streak int) string {
	switch status {
	case model.StreakStarted:
		return "Streak started!"
	case model.StreakAlreadyRecorded:
		return "Already recorded today!"
	case model.StreakExtended:
		return fmt.Sprintf("%d day streak!", streak)
	default:
		return "Welcome back! Starting fresh."
	}
}

// RecordActivity 记录用户今天的学习活动。同一天内重复调用不改变任何状态
func (s *StreakService) RecordActivity(ctx context.Context, userID uint) (result *RecordResult, err error) {
	if userID == 0 {
		return nil, util.ErrUnauthenticated
	}

	ctx, span := tracing.StartUserSpan(ctx, "StreakService.RecordActivity", userID)
	defer func() {
		if result != nil {
			span.SetAttributes(attribute.String("streak.status", string(result.Status)))
		}
		tracing.EndWithError(span, err)
	}()

	unlock, err := s.Locker.Lock(ctx, streakLockKey(userID))
	if err != nil {
		s.recordFailure(userID, err)
		return nil, util.WrapStorage("acquire streak lock", err)
	}
	defer unlock()

	today := util.Today(s.now(), s.Location)

	err = s.Store.Transaction(ctx, func(tx repository.StreakStore) error {
		r, txErr := s.transition(ctx, tx, userID, today)
		if txErr != nil {
			return txErr
		}
		result = r
		return nil
	})

	if errors.Is(err, util.ErrActivityConflict) {
		// 今天已由其他请求记录，本次事务已回滚
		result, err = s.alreadyRecorded(ctx, userID)
	}
	if err != nil {
		s.recordFailure(userID, err)
		return nil, util.WrapStorage("record activity", err)
	}

	monitoring.StreakUpdates.WithLabelValues(string(result.Status)).Inc()
	if result.Status == model.StreakAlreadyRecorded {
		logger.Log.Debug("streak already recorded today", zap.Uint("userId", userID))
		return result, nil
	}

	s.Cache.Invalidate(userID)
	for _, badge := range result.NewBadges {
		monitoring.BadgesAwarded.WithLabelValues(badge.Name).Inc()
		logger.Log.Info("badge awarded",
			zap.Uint("userId", userID),
			zap.String("badge", badge.Name),
			zap.Int("milestone", badge.MilestoneDays))
	}
	logger.Log.Info("streak updated",
		zap.Uint("userId", userID),
		zap.String("status", string(result.Status)),
		zap.String("day", util.FormatDay(*result.Streak.LastActiveDay)),
		zap.Int("current", result.Streak.CurrentStreak),
		zap.Int("longest", result.Streak.LongestStreak))

	return result, nil
}

func (s *StreakService) transition(ctx context.Context, tx repository.StreakStore, userID uint, today time.Time) (*RecordResult, error) {
	record, err := tx.FindStreak(ctx, userID)
	var status model.StreakStatus

	switch {
	case errors.Is(err, util.ErrStreakNotFound):
		record = &model.UserStreak{UserID: userID}
		status = model.StreakStarted
	case err != nil:
		return nil, err
	case record.LastActiveDay == nil:
		status = model.StreakReset
	default:
		last := util.NormalizeDay(*record.LastActiveDay, s.Location)
		// 负数（时钟回拨）按中断处理
		switch diff := util.DaysBetween(last, today); diff {
		case 0:
			return &RecordResult{
				Streak:    record,
				NewBadges: []model.BadgeDefinition{},
				Status:    model.StreakAlreadyRecorded,
				Message:   StatusMessage(model.StreakAlreadyRecorded, record.CurrentStreak),
			}, nil
		case 1:
			status = model.StreakExtended
		default:
			status = model.StreakReset
		}
	}

	if status == model.StreakExtended {
		record.CurrentStreak++
	} else {
		record.CurrentStreak = 1
	}
	if record.CurrentStreak > record.LongestStreak {
		record.LongestStreak = record.CurrentStreak
	}
	record.TotalDaysActive++
	day := today
	record.LastActiveDay = &day

	if err := tx.SaveStreak(ctx, record); err != nil {
		return nil, err
	}

	if err := tx.AppendActivity(ctx, &model.StreakActivity{
		UserID:      userID,
		ActivityDay: today,
		WasActive:   true,
	}); err != nil {
		return nil, err
	}

	badges, err := s.Awarder.Award(ctx, tx, userID, record.CurrentStreak)
	if err != nil {
		return nil, err
	}

	return &RecordResult{
		Streak:    record,
		NewBadges: badges,
		Status:    status,
		Message:   StatusMessage(status, record.CurrentStreak),
	}, nil
}

func (s *StreakService) alreadyRecorded(ctx context.Context, userID uint) (*RecordResult, error) {
	record, err := s.Store.FindStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RecordResult{
		Streak:    record,
		NewBadges: []model.BadgeDefinition{},
		Status:    model.StreakAlreadyRecorded,
		Message:   StatusMessage(model.StreakAlreadyRecorded, record.CurrentStreak),
	}, nil
}

func (s *StreakService) recordFailure(userID uint, err error) {
	monitoring.StreakUpdateFailures.Inc()
	logger.Log.Error("streak update failed", zap.Uint("userId", userID), zap.Error(err))
}
