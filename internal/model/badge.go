package model

import (
	"time"
)

// BadgeDefinition 里程碑徽章。Shape 和 Animation 只给前端使用
// swagger:model BadgeDefinition
type BadgeDefinition struct {
	Name          string `gorm:"column:badge_name;size:100;uniqueIndex;not null" json:"badgeName"`
	MilestoneDays int    `gorm:"not null" json:"milestoneDays"`
	Shape         string `gorm:"column:badge_shape;size:50;not null" json:"badgeShape"`
	Animation     string `gorm:"column:animation_type;size:50;not null" json:"animationType"`
	Description   string `gorm:"size:255" json:"description"`
}

// Badge badges 表，内容与 BadgeCatalog 一致，供报表关联查询
type Badge struct {
	ID              uint `gorm:"primaryKey;autoIncrement"`
	BadgeDefinition `gorm:"embedded"`
	CreatedAt       time.Time
}

func (Badge) TableName() string {
	return "badges"
}

// UserBadge 每个用户每个徽章最多一条
type UserBadge struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"type:bigint;not null;uniqueIndex:idx_user_badge" json:"userId"`
	BadgeName string    `gorm:"size:100;not null;uniqueIndex:idx_user_badge" json:"badgeName"`
	EarnedAt  time.Time `gorm:"not null" json:"earnedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}

// EarnedBadge 已获得的徽章及获得时间
// swagger:model EarnedBadge
type EarnedBadge struct {
	BadgeDefinition
	EarnedAt time.Time `json:"earnedAt"`
}

// 按 MilestoneDays 升序，里程碑不重复
var badgeCatalog = [...]BadgeDefinition{
	{Name: "Starter Spark", MilestoneDays: 1, Shape: "circle", Animation: "glow", Description: "Started your learning journey"},
	{Name: "Weekly Warrior", MilestoneDays: 7, Shape: "flame", Animation: "flicker", Description: "7 days of consistent learning"},
	{Name: "Focused Learner", MilestoneDays: 14, Shape: "star", Animation: "burst", Description: "Two weeks of dedication"},
	{Name: "Consistency Champ", MilestoneDays: 21, Shape: "crystal", Animation: "shine", Description: "Three weeks of learning momentum"},
	{Name: "Infinity Master", MilestoneDays: 30, Shape: "infinity", Animation: "pulse", Description: "A full month of learning"},
	{Name: "Dedication Diamond", MilestoneDays: 45, Shape: "diamond", Animation: "sparkle", Description: "45 days of unwavering commitment"},
	{Name: "Knowledge Keeper", MilestoneDays: 60, Shape: "shield", Animation: "glow-wave", Description: "Two months of consistent growth"},
	{Name: "Learning Legend", MilestoneDays: 90, Shape: "crown", Animation: "radiant", Description: "Three months of excellence"},
	{Name: "Mastery Monarch", MilestoneDays: 120, Shape: "hexagon", Animation: "rotate-glow", Description: "Four months of mastery"},
	{Name: "Eternal Scholar", MilestoneDays: 150, Shape: "pentagon", Animation: "cosmic", Description: "150 days of pure dedication"},
	{Name: "Supreme Sage", MilestoneDays: 200, Shape: "octagon", Animation: "prismatic", Description: "200 days of transformation"},
}

// BadgeCatalog 返回徽章目录的副本
func BadgeCatalog() []BadgeDefinition {
	out := make([]BadgeDefinition, len(badgeCatalog))
	copy(out, badgeCatalog[:])
	return out
}

func FindBadge(name string) (BadgeDefinition, bool) {
	for _, b := range badgeCatalog {
		if b.Name == name {
			return b, true
		}
	}
	return BadgeDefinition{}, false
}

// NextBadge 返回第一个里程碑大于 streak 的徽章
func NextBadge(catalog []BadgeDefinition, streak int) (BadgeDefinition, bool) {
	for _, b := range catalog {
		if b.MilestoneDays > streak {
			return b, true
		}
	}
	return BadgeDefinition{}, false
}
