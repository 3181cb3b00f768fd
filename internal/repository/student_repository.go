package repository

import (
	"context"
	"errors"
	"intervention_backend/internal/model"
	"intervention_backend/internal/util"

	"gorm.io/gorm"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

// List 按姓名排序返回全部学生
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.DB.WithContext(ctx).Order("name ASC, id ASC").Find(&students).Error
	return students, err
}

// FindByID 根据ID获取学生
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.DB.WithContext(ctx).First(&student, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

// Save 只更新状态相关字段，姓名和创建时间不变
func (r *StudentRepository) Save(ctx context.Context, student *model.Student) error {
	return r.DB.WithContext(ctx).Model(&model.Student{}).
		Where("id = ?", student.ID).
		Updates(map[string]interface{}{
			"status":                  student.Status,
			"current_task":            student.CurrentTask,
			"current_intervention_id": student.CurrentInterventionID,
			"updated_at":              student.UpdatedAt,
		}).Error
}
