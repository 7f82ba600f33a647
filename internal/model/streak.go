package model

import (
	"time"
)

type StreakStatus string

const (
	StreakStarted         StreakStatus = "started"
	StreakAlreadyRecorded StreakStatus = "already-recorded"
	StreakExtended        StreakStatus = "extended"
	StreakReset           StreakStatus = "reset"
)

// UserStreak 用户的连续学习记录，每个用户一行
// swagger:model UserStreak
type UserStreak struct {
	BaseModel
	UserID          uint       `gorm:"uniqueIndex;type:bigint;not null" json:"userId"`
	CurrentStreak   int        `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak   int        `gorm:"not null;default:0" json:"longestStreak"`
	LastActiveDay   *time.Time `gorm:"type:date" json:"lastActiveDay"`
	TotalDaysActive int        `gorm:"not null;default:0" json:"totalDaysActive"`
}

func (UserStreak) TableName() string {
	return "user_streaks"
}

// Clone 返回不共享 LastActiveDay 指针的副本
func (s *UserStreak) Clone() *UserStreak {
	if s == nil {
		return nil
	}
	out := *s
	if s.LastActiveDay != nil {
		day := *s.LastActiveDay
		out.LastActiveDay = &day
	}
	return &out
}

// StreakActivity 每个用户每天最多一条
// swagger:model StreakActivity
type StreakActivity struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"type:bigint;not null;uniqueIndex:idx_user_activity_day" json:"userId"`
	ActivityDay time.Time `gorm:"type:date;not null;uniqueIndex:idx_user_activity_day" json:"activityDay"`
	WasActive   bool      `gorm:"not null" json:"wasActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (StreakActivity) TableName() string {
	return "streak_history"
}
