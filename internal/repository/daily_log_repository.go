package repository

import (
	"context"
	"intervention_backend/internal/model"

	"gorm.io/gorm"
)

type DailyLogRepository struct {
	DB *gorm.DB
}

func NewDailyLogRepository(db *gorm.DB) *DailyLogRepository {
	return &DailyLogRepository{DB: db}
}

// Append 写入打卡记录，记录不会被修改或删除
func (r *DailyLogRepository) Append(ctx context.Context, log *model.DailyLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

// ListRecent 按时间倒序获取学生的打卡记录
func (r *DailyLogRepository) ListRecent(ctx context.Context, studentID string, limit int) ([]model.DailyLog, error) {
	var logs []model.DailyLog
	err := r.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
