package repository

import (
	"context"
	"errors"
	"intervention_backend/internal/model"
	"intervention_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type InterventionRepository struct {
	DB *gorm.DB
}

func NewInterventionRepository(db *gorm.DB) *InterventionRepository {
	return &InterventionRepository{DB: db}
}

// Create 创建干预记录，同一学生已有进行中的干预时返回 util.ErrOpenInterventionExists
func (r *InterventionRepository) Create(ctx context.Context, iv *model.Intervention) error {
	err := r.DB.WithContext(ctx).Create(iv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrOpenInterventionExists
	}
	return err
}

// Save 更新干预记录
func (r *InterventionRepository) Save(ctx context.Context, iv *model.Intervention) error {
	err := r.DB.WithContext(ctx).Save(iv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrOpenInterventionExists
	}
	return err
}

// FindByID 根据ID获取干预记录
func (r *InterventionRepository) FindByID(ctx context.Context, id string) (*model.Intervention, error) {
	var iv model.Intervention
	err := r.DB.WithContext(ctx).First(&iv, "id = ?", id).Error
	return found(&iv, err)
}

// FindOpen 获取学生进行中的干预（Pending 或 Assigned）
func (r *InterventionRepository) FindOpen(ctx context.Context, studentID string) (*model.Intervention, error) {
	var iv model.Intervention
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND status IN ?", studentID, []model.InterventionStatus{model.InterventionPending, model.InterventionAssigned}).
		Order("created_at DESC").
		First(&iv).Error
	return found(&iv, err)
}

// FindLatestByStatus 获取学生指定状态的最新干预
func (r *InterventionRepository) FindLatestByStatus(ctx context.Context, studentID string, status model.InterventionStatus) (*model.Intervention, error) {
	var iv model.Intervention
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, status).
		Order("created_at DESC").
		First(&iv).Error
	return found(&iv, err)
}

// ListByStudent 按创建时间倒序获取学生的干预记录
func (r *InterventionRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Intervention, error) {
	var ivs []model.Intervention
	err := r.DB.WithContext(ctx).Where("student_id = ?", studentID).Order("created_at DESC").Find(&ivs).Error
	return ivs, err
}

// ListPendingBefore 获取截止时间前创建且仍待处理的干预，按创建时间升序
func (r *InterventionRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]model.Intervention, error) {
	var ivs []model.Intervention
	err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.InterventionPending, cutoff).
		Order("created_at ASC").
		Find(&ivs).Error
	return ivs, err
}

func found(iv *model.Intervention, err error) (*model.Intervention, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInterventionNotFound
		}
		return nil, err
	}
	return iv, nil
}
