package service

import (
	"context"
	"time"

	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/repository"
)

// BadgeAwarder 按里程碑发放徽章。已获得的徽章不会因连续天数重置而收回
type BadgeAwarder struct {
	Catalog []model.BadgeDefinition
	now     func() time.Time
}

func NewBadgeAwarder(catalog []model.BadgeDefinition, now func() time.Time) *BadgeAwarder {
	if now == nil {
		now = time.Now
	}
	return &BadgeAwarder{Catalog: catalog, now: now}
}

// Award 发放 streak 已达到且尚未拥有的所有徽章，返回本次新发放的徽章（目录顺序）
func (a *BadgeAwarder) Award(ctx context.Context, store repository.StreakStore, userID uint, streak int) ([]model.BadgeDefinition, error) {
	awarded := []model.BadgeDefinition{}
	if len(a.Catalog) == 0 || streak < a.Catalog[0].MilestoneDays {
		return awarded, nil
	}

	existing, err := store.ListBadgeAwards(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(existing))
	for _, b := range existing {
		owned[b.BadgeName] = true
	}

	earnedAt := a.now()
	for _, badge := range a.Catalog {
		if streak < badge.MilestoneDays {
			break
		}
		if owned[badge.Name] {
			continue
		}

		created, err := store.AwardBadge(ctx, &model.UserBadge{
			UserID:    userID,
			BadgeName: badge.Name,
			EarnedAt:  earnedAt,
		})
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}

		awarded = append(awarded, badge)
	}

	return awarded, nil
}
