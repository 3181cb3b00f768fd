package repository

import (
	"context"
	"intervention_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// Store 干预流程的存储接口
type Store interface {
	// Atomic 在同一个事务中执行 fn
	Atomic(ctx context.Context, fn func(tx Store) error) error

	ListStudents(ctx context.Context) ([]model.Student, error)
	FindStudent(ctx context.Context, id string) (*model.Student, error)
	SaveStudent(ctx context.Context, student *model.Student) error

	AppendLog(ctx context.Context, log *model.DailyLog) error
	ListLogs(ctx context.Context, studentID string, limit int) ([]model.DailyLog, error)

	CreateIntervention(ctx context.Context, iv *model.Intervention) error
	SaveIntervention(ctx context.Context, iv *model.Intervention) error
	FindIntervention(ctx context.Context, id string) (*model.Intervention, error)
	FindOpenIntervention(ctx context.Context, studentID string) (*model.Intervention, error)
	FindLatestIntervention(ctx context.Context, studentID string, status model.InterventionStatus) (*model.Intervention, error)
	ListInterventions(ctx context.Context, studentID string) ([]model.Intervention, error)
	ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Intervention, error)
}

// GormStore 基于 gorm 的存储实现
type GormStore struct {
	db            *gorm.DB
	students      *StudentRepository
	logs          *DailyLogRepository
	interventions *InterventionRepository
}

// NewGormStore 创建存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:            db,
		students:      NewStudentRepository(db),
		logs:          NewDailyLogRepository(db),
		interventions: NewInterventionRepository(db),
	}
}

// Atomic 在事务中执行 fn，fn 返回错误时回滚
func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

// ListStudents 获取全部学生
func (s *GormStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	return s.students.List(ctx)
}

// FindStudent 根据ID获取学生
func (s *GormStore) FindStudent(ctx context.Context, id string) (*model.Student, error) {
	return s.students.FindByID(ctx, id)
}

// SaveStudent 更新学生状态
func (s *GormStore) SaveStudent(ctx context.Context, student *model.Student) error {
	return s.students.Save(ctx, student)
}

// AppendLog 写入打卡记录
func (s *GormStore) AppendLog(ctx context.Context, log *model.DailyLog) error {
	return s.logs.Append(ctx, log)
}

// ListLogs 获取学生最近的打卡记录
func (s *GormStore) ListLogs(ctx context.Context, studentID string, limit int) ([]model.DailyLog, error) {
	return s.logs.ListRecent(ctx, studentID, limit)
}

// CreateIntervention 创建干预记录
func (s *GormStore) CreateIntervention(ctx context.Context, iv *model.Intervention) error {
	return s.interventions.Create(ctx, iv)
}

// SaveIntervention 更新干预记录
func (s *GormStore) SaveIntervention(ctx context.Context, iv *model.Intervention) error {
	return s.interventions.Save(ctx, iv)
}

// FindIntervention 根据ID获取干预记录
func (s *GormStore) FindIntervention(ctx context.Context, id string) (*model.Intervention, error) {
	return s.interventions.FindByID(ctx, id)
}

// FindOpenIntervention 获取学生进行中的干预
func (s *GormStore) FindOpenIntervention(ctx context.Context, studentID string) (*model.Intervention, error) {
	return s.interventions.FindOpen(ctx, studentID)
}

// FindLatestIntervention 获取学生指定状态的最新干预
func (s *GormStore) FindLatestIntervention(ctx context.Context, studentID string, status model.InterventionStatus) (*model.Intervention, error) {
	return s.interventions.FindLatestByStatus(ctx, studentID, status)
}

// ListInterventions 获取学生的全部干预记录
func (s *GormStore) ListInterventions(ctx context.Context, studentID string) ([]model.Intervention, error) {
	return s.interventions.ListByStudent(ctx, studentID)
}

// ListStalePending 获取超时未处理的干预
func (s *GormStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Intervention, error) {
	return s.interventions.ListPendingBefore(ctx, cutoff)
}
