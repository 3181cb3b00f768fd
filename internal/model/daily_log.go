package model

import (
	"time"
)

// DailyLog 每日打卡记录，写入后不再修改
// swagger:model DailyLog
type DailyLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID    string    `gorm:"type:varchar(64);not null;index:idx_student_created,priority:1" json:"student_id"`
	QuizScore    int       `gorm:"not null" json:"quiz_score"`
	FocusMinutes int       `gorm:"not null" json:"focus_minutes"`
	Status       string    `gorm:"size:32;not null" json:"status"` // 判定结果
	CreatedAt    time.Time `gorm:"index:idx_student_created,priority:2" json:"created_at"`
}

func (DailyLog) TableName() string {
	return "daily_logs"
}
