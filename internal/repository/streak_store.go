package repository

import (
	"context"
	"time"

	"learning_streak_backend/internal/model"
)

// StreakStore 连续学习相关的持久化接口。
//
// FindStreak 找不到时返回 util.ErrStreakNotFound；
// AppendActivity 同一 (user_id, activity_day) 已存在时返回 util.ErrActivityConflict；
// SaveStreak 新建记录与已有记录冲突时同样返回 util.ErrActivityConflict；
// 其余失败均包装为 util.ErrStorage。
type StreakStore interface {
	FindStreak(ctx context.Context, userID uint) (*model.UserStreak, error)
	SaveStreak(ctx context.Context, streak *model.UserStreak) error
	AppendActivity(ctx context.Context, entry *model.StreakActivity) error
	// ListActivity 返回 [from, to] 闭区间内的记录，按日期升序
	ListActivity(ctx context.Context, userID uint, from, to time.Time) ([]model.StreakActivity, error)
	ListBadgeAwards(ctx context.Context, userID uint) ([]model.UserBadge, error)
	// AwardBadge 已拥有时返回 false, nil
	AwardBadge(ctx context.Context, award *model.UserBadge) (bool, error)
	// Transaction fn 返回错误时回滚全部写入
	Transaction(ctx context.Context, fn func(tx StreakStore) error) error
}
