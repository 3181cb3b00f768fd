package service

import (
	"context"
	"errors"
	"intervention_backend/internal/model"
	"intervention_backend/internal/repository"
	"intervention_backend/internal/util"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultLogLimit     = 30
	MaxLogLimit         = 200
)

// StudentStatusView 学生状态视图，仅在等待导师处理时下发轮询间隔
type StudentStatusView struct {
	Student             *model.Student      `json:"student"`
	PendingIntervention *model.Intervention `json:"pending_intervention"`
	PollIntervalSeconds int                 `json:"poll_interval_seconds,omitempty"`
}

// StatusService 学生状态查询
type StatusService struct {
	store        repository.Store
	broadcaster  StatusBroadcaster
	pollInterval time.Duration
	maxWait      time.Duration
	refreshes    singleflight.Group
}

// NewStatusService 创建状态查询服务
func NewStatusService(store repository.Store, broadcaster StatusBroadcaster, pollInterval, maxWait time.Duration) *StatusService {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxWait <= 0 || maxWait > pollInterval {
		maxWait = pollInterval
	}
	return &StatusService{
		store:        store,
		broadcaster:  broadcaster,
		pollInterval: pollInterval,
		maxWait:      maxWait,
	}
}

// ListStudents 获取学生列表
func (s *StatusService) ListStudents(ctx context.Context) ([]model.StudentSummary, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, util.StoreError(err, "failed to list students")
	}
	out := make([]model.StudentSummary, 0, len(students))
	for _, st := range students {
		out = append(out, model.StudentSummary{ID: st.ID, Name: st.Name, Status: st.Status})
	}
	return out, nil
}

// GetStatus 获取学生当前状态及待处理的干预
func (s *StatusService) GetStatus(ctx context.Context, studentID string) (*StudentStatusView, error) {
	if studentID == "" {
		return nil, util.ValidationError("student_id is required")
	}
	st, err := s.findStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	view := &StudentStatusView{Student: st}
	pending, err := s.store.FindLatestIntervention(ctx, studentID, model.InterventionPending)
	switch {
	case err == nil:
		view.PendingIntervention = pending
	case !errors.Is(err, util.ErrInterventionNotFound):
		return nil, util.StoreError(err, "failed to load pending intervention")
	}

	if st.Status == model.StatusNeedsIntervention {
		view.PollIntervalSeconds = max(1, int(s.pollInterval/time.Second))
	}
	return view, nil
}

// WaitForChange 长轮询：状态与 known 不同时立即返回，否则等待至超时（不超过轮询间隔）
func (s *StatusService) WaitForChange(ctx context.Context, studentID string, known model.StudentStatus, timeout time.Duration) (*StudentStatusView, bool, error) {
	if timeout <= 0 || timeout > s.maxWait {
		timeout = s.maxWait
	}

	updates, cancel := s.broadcaster.Subscribe(ctx, studentID)
	defer cancel()

	view, err := s.GetStatus(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	if !known.Valid() || view.Student.Status != known {
		return view, true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-updates:
			view, err = s.refresh(ctx, studentID)
			if err != nil {
				return nil, false, err
			}
			if view.Student.Status != known {
				return view, true, nil
			}
		case <-timer.C:
			view, err = s.GetStatus(ctx, studentID)
			if err != nil {
				return nil, false, err
			}
			return view, view.Student.Status != known, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// refresh 合并同一次变更唤醒的重复查询，返回的视图共享，调用方不得修改
func (s *StatusService) refresh(ctx context.Context, studentID string) (*StudentStatusView, error) {
	v, err, _ := s.refreshes.Do(studentID, func() (interface{}, error) {
		return s.GetStatus(ctx, studentID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*StudentStatusView), nil
}

// ListLogs 获取学生打卡记录
func (s *StatusService) ListLogs(ctx context.Context, studentID string, limit int) ([]model.DailyLog, error) {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	logs, err := s.store.ListLogs(ctx, studentID, limit)
	if err != nil {
		return nil, util.StoreError(err, "failed to list daily logs")
	}
	return logs, nil
}

// ListInterventions 获取学生干预记录
func (s *StatusService) ListInterventions(ctx context.Context, studentID string) ([]model.Intervention, error) {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return nil, err
	}
	ivs, err := s.store.ListInterventions(ctx, studentID)
	if err != nil {
		return nil, util.StoreError(err, "failed to list interventions")
	}
	return ivs, nil
}

func (s *StatusService) findStudent(ctx context.Context, studentID string) (*model.Student, error) {
	st, err := s.store.FindStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			return nil, util.NotFoundError(err, "student %s not found", studentID)
		}
		return nil, util.StoreError(err, "failed to load student")
	}
	return st, nil
}

// PollInterval 客户端轮询间隔
func (s *StatusService) PollInterval() time.Duration {
	return s.pollInterval
}
