package repository

import (
	"context"
	"errors"
	"time"

	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) FindStreak(ctx context.Context, userID uint) (*model.UserStreak, error) {
	var streak model.UserStreak
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStreakNotFound
	}
	if err != nil {
		return nil, util.WrapStorage("find streak", err)
	}
	return &streak, nil
}

func (r *StreakRepository) SaveStreak(ctx context.Context, streak *model.UserStreak) error {
	db := r.DB.WithContext(ctx)
	if streak.ID != 0 {
		return util.WrapStorage("update streak", db.Save(streak).Error)
	}

	// 首次创建：user_id 唯一，冲突说明其他请求已经创建
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(streak)
	if result.Error != nil {
		return util.WrapStorage("create streak", result.Error)
	}
	if result.RowsAffected == 0 {
		return util.ErrActivityConflict
	}
	return nil
}

func (r *StreakRepository) AppendActivity(ctx context.Context, entry *model.StreakActivity) error {
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "activity_day"}},
		DoNothing: true,
	}).Create(entry)
	if result.Error != nil {
		return util.WrapStorage("append activity", result.Error)
	}
	if result.RowsAffected == 0 {
		return util.ErrActivityConflict
	}
	return nil
}

func (r *StreakRepository) ListActivity(ctx context.Context, userID uint, from, to time.Time) ([]model.StreakActivity, error) {
	entries := []model.StreakActivity{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND activity_day BETWEEN ? AND ?", userID, from, to).
		Order("activity_day ASC").
		Find(&entries).Error
	if err != nil {
		return nil, util.WrapStorage("list activity", err)
	}
	return entries, nil
}

func (r *StreakRepository) ListBadgeAwards(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	awards := []model.UserBadge{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC, id ASC").
		Find(&awards).Error
	if err != nil {
		return nil, util.WrapStorage("list badge awards", err)
	}
	return awards, nil
}

func (r *StreakRepository) AwardBadge(ctx context.Context, award *model.UserBadge) (bool, error) {
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_name"}},
		DoNothing: true,
	}).Create(award)
	if result.Error != nil {
		return false, util.WrapStorage("award badge", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *StreakRepository) Transaction(ctx context.Context, fn func(tx StreakStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&StreakRepository{DB: tx})
	})
}
