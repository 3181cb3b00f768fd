package service

import (
	"context"
	"errors"
	"fmt"
	"intervention_backend/internal/model"
	"intervention_backend/internal/repository"
	"intervention_backend/internal/util"
	"intervention_backend/pkg/logger"
	"intervention_backend/pkg/monitoring"
	"intervention_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	MinQuizScore = 0
	MaxQuizScore = 10
)

// CheckinRequest 打卡请求，使用指针区分 0 和未填写
type CheckinRequest struct {
	StudentID    string `json:"student_id"`
	QuizScore    *int   `json:"quiz_score"`
	FocusMinutes *int   `json:"focus_minutes"`
}

// Validate 校验必填字段及取值范围
func (r *CheckinRequest) Validate() error {
	r.StudentID = strings.TrimSpace(r.StudentID)
	var missing []string
	if r.StudentID == "" {
		missing = append(missing, "student_id")
	}
	if r.QuizScore == nil {
		missing = append(missing, "quiz_score")
	}
	if r.FocusMinutes == nil {
		missing = append(missing, "focus_minutes")
	}
	if len(missing) > 0 {
		return util.ValidationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if *r.QuizScore < MinQuizScore || *r.QuizScore > MaxQuizScore {
		return util.ValidationError("quiz_score must be between %d and %d", MinQuizScore, MaxQuizScore)
	}
	if *r.FocusMinutes < 0 {
		return util.ValidationError("focus_minutes must not be negative")
	}
	return nil
}

// CheckinResult 打卡结果
type CheckinResult struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	InterventionID string `json:"intervention_id,omitempty"`
}

// AssignTaskRequest 分配补救任务请求
type AssignTaskRequest struct {
	StudentID      string `json:"student_id"`
	Task           string `json:"task"`
	InterventionID string `json:"intervention_id,omitempty"`
	AssignedBy     string `json:"assigned_by,omitempty"`
}

// Validate 校验请求并补全默认分配人
func (r *AssignTaskRequest) Validate() error {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.Task = strings.TrimSpace(r.Task)
	r.InterventionID = strings.TrimSpace(r.InterventionID)
	r.AssignedBy = strings.TrimSpace(r.AssignedBy)
	if r.StudentID == "" || r.Task == "" {
		return util.ValidationError("student_id and task are required")
	}
	if r.AssignedBy == "" {
		r.AssignedBy = util.DefaultAssignedBy
	}
	return nil
}

type AssignTaskResult struct {
	Message        string `json:"message"`
	Task           string `json:"task"`
	InterventionID string `json:"intervention_id,omitempty"`
}

// CompleteTaskRequest 完成补救任务请求
type CompleteTaskRequest struct {
	StudentID string `json:"student_id"`
}

// Validate 校验学生ID
func (r *CompleteTaskRequest) Validate() error {
	r.StudentID = strings.TrimSpace(r.StudentID)
	if r.StudentID == "" {
		return util.ValidationError("student_id is required")
	}
	return nil
}

type CompleteTaskResult struct {
	Message        string `json:"message"`
	InterventionID string `json:"intervention_id,omitempty"`
}

// InterventionService 学生状态流转（Normal -> Needs Intervention -> Remedial -> Normal）
// 每次操作持有学生锁，学生与干预记录在同一事务中提交
type InterventionService struct {
	store       repository.Store
	locker      StudentLocker
	dispatcher  *Dispatcher
	broadcaster StatusBroadcaster
	now         func() time.Time
}

// NewInterventionService 创建干预服务
func NewInterventionService(store repository.Store, locker StudentLocker, dispatcher *Dispatcher, broadcaster StatusBroadcaster) *InterventionService {
	return &InterventionService{
		store:       store,
		locker:      locker,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// interventionReason 未达标原因
func interventionReason(quizScore, focusMinutes int) string {
	return fmt.Sprintf("Quiz score %d/%d, focus %d minutes", quizScore, MaxQuizScore, focusMinutes)
}

// SubmitCheckin 提交打卡：记录日志，未达标时创建或复用干预并异步通知导师
func (s *InterventionService) SubmitCheckin(ctx context.Context, req CheckinRequest) (*CheckinResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "InterventionService.SubmitCheckin")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("student.id", req.StudentID))

	unlock, err := s.locker.Lock(ctx, req.StudentID)
	if err != nil {
		return nil, util.StoreError(err, "failed to lock student")
	}
	defer unlock()

	quiz, focus := *req.QuizScore, *req.FocusMinutes
	outcome := Evaluate(quiz, focus)
	span.SetAttributes(attribute.String("checkin.outcome", outcome.String()))

	var (
		student      *model.Student
		intervention *model.Intervention
		from         model.StudentStatus
	)
	write := func(tx repository.Store) error {
		now := s.now()
		st, err := tx.FindStudent(ctx, req.StudentID)
		if err != nil {
			return err
		}
		from = st.Status

		if err := tx.AppendLog(ctx, &model.DailyLog{
			StudentID:    st.ID,
			QuizScore:    quiz,
			FocusMinutes: focus,
			Status:       outcome.Label(),
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		if outcome == Pass {
			st.MarkOnTrack(now)
			student = st
			return tx.SaveStudent(ctx, st)
		}

		iv, err := s.openIntervention(ctx, tx, st.ID, interventionReason(quiz, focus))
		if err != nil {
			return err
		}
		st.MarkNeedsIntervention(iv.ID, now)
		student, intervention = st, iv
		return tx.SaveStudent(ctx, st)
	}

	err = s.store.Atomic(ctx, write)
	if errors.Is(err, util.ErrOpenInterventionExists) {
		// 并发创建冲突，重试时复用已存在的干预
		err = s.store.Atomic(ctx, write)
	}
	if err != nil {
		return nil, s.storeErr(err, req.StudentID, "failed to record check-in")
	}

	monitoring.CheckinCounter.WithLabelValues(outcome.String()).Inc()
	s.transitioned(ctx, student.ID, from, student.Status)

	if outcome == Pass {
		return &CheckinResult{
			Status:  outcome.ResponseStatus(),
			Message: "Great work! You are on track.",
		}, nil
	}

	s.dispatcher.Dispatch(InterventionNotification{
		Event:          EventInterventionCreated,
		StudentID:      student.ID,
		StudentName:    student.Name,
		QuizScore:      quiz,
		FocusMinutes:   focus,
		InterventionID: intervention.ID,
		Reason:         interventionReason(quiz, focus),
		Timestamp:      s.now(),
	})

	return &CheckinResult{
		Status:         outcome.ResponseStatus(),
		Message:        "Check-in recorded. A mentor will review your progress.",
		InterventionID: intervention.ID,
	}, nil
}

// openIntervention 获取进行中的干预，没有则创建
func (s *InterventionService) openIntervention(ctx context.Context, tx repository.Store, studentID, reason string) (*model.Intervention, error) {
	iv, err := tx.FindOpenIntervention(ctx, studentID)
	if err == nil {
		logger.Log.Info("Reusing open intervention",
			zap.String("studentId", studentID),
			zap.String("interventionId", iv.ID),
			zap.String("status", string(iv.Status)))
		// 待审核的干预记录跟随最近一次未通过的打卡
		if iv.Status == model.InterventionPending && iv.Reason != reason {
			iv.Reason = reason
			if err := tx.SaveIntervention(ctx, iv); err != nil {
				return nil, err
			}
		}
		return iv, nil
	}
	if !errors.Is(err, util.ErrInterventionNotFound) {
		return nil, err
	}

	iv = model.NewPendingIntervention(studentID, reason)
	if err := tx.CreateIntervention(ctx, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// AssignTask 导师分配补救任务，学生进入 Remedial
func (s *InterventionService) AssignTask(ctx context.Context, req AssignTaskRequest) (*AssignTaskResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "InterventionService.AssignTask")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("student.id", req.StudentID))

	unlock, err := s.locker.Lock(ctx, req.StudentID)
	if err != nil {
		return nil, util.StoreError(err, "failed to lock student")
	}
	defer unlock()

	var (
		from       model.StudentStatus
		assignedID string
	)
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		now := s.now()
		st, err := tx.FindStudent(ctx, req.StudentID)
		if err != nil {
			return err
		}
		from = st.Status

		iv, err := s.interventionToAssign(ctx, tx, st, req.InterventionID)
		if err != nil {
			return err
		}
		if iv != nil && iv.Assign(req.Task, req.AssignedBy, now) {
			if err := tx.SaveIntervention(ctx, iv); err != nil {
				return err
			}
			assignedID = iv.ID
		} else if req.InterventionID != "" {
			logger.Log.Warn("Intervention not assignable, updating student only",
				zap.String("studentId", st.ID),
				zap.String("interventionId", req.InterventionID))
		}

		st.StartRemediation(req.Task, assignedID, now)
		return tx.SaveStudent(ctx, st)
	})
	if err != nil {
		return nil, s.storeErr(err, req.StudentID, "failed to assign task")
	}

	s.transitioned(ctx, req.StudentID, from, model.StatusRemedial)

	return &AssignTaskResult{
		Message:        "Task assigned successfully",
		Task:           req.Task,
		InterventionID: assignedID,
	}, nil
}

// interventionToAssign 优先使用请求中属于该学生的干预，否则使用当前进行中的干预，返回 nil 表示无需更新
func (s *InterventionService) interventionToAssign(ctx context.Context, tx repository.Store, st *model.Student, requestedID string) (*model.Intervention, error) {
	if requestedID != "" {
		iv, err := tx.FindIntervention(ctx, requestedID)
		if errors.Is(err, util.ErrInterventionNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if iv.StudentID != st.ID {
			return nil, nil
		}
		return iv, nil
	}

	if st.CurrentInterventionID != nil {
		iv, err := tx.FindIntervention(ctx, *st.CurrentInterventionID)
		if err == nil && iv.Status.Open() {
			return iv, nil
		}
		if err != nil && !errors.Is(err, util.ErrInterventionNotFound) {
			return nil, err
		}
	}

	iv, err := tx.FindOpenIntervention(ctx, st.ID)
	if errors.Is(err, util.ErrInterventionNotFound) {
		return nil, nil
	}
	return iv, err
}

// CompleteTask 学生完成补救任务，回到 Normal
func (s *InterventionService) CompleteTask(ctx context.Context, req CompleteTaskRequest) (*CompleteTaskResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "InterventionService.CompleteTask")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("student.id", req.StudentID))

	unlock, err := s.locker.Lock(ctx, req.StudentID)
	if err != nil {
		return nil, util.StoreError(err, "failed to lock student")
	}
	defer unlock()

	var (
		from        model.StudentStatus
		completedID string
	)
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		now := s.now()
		st, err := tx.FindStudent(ctx, req.StudentID)
		if err != nil {
			return err
		}
		from = st.Status

		iv, err := s.interventionToComplete(ctx, tx, st)
		if err != nil {
			return err
		}
		if iv != nil && iv.Complete(now) {
			if err := tx.SaveIntervention(ctx, iv); err != nil {
				return err
			}
			completedID = iv.ID
		}

		st.FinishRemediation(now)
		return tx.SaveStudent(ctx, st)
	})
	if err != nil {
		return nil, s.storeErr(err, req.StudentID, "failed to complete task")
	}

	s.transitioned(ctx, req.StudentID, from, model.StatusNormal)

	return &CompleteTaskResult{
		Message:        "Task completed. Welcome back on track!",
		InterventionID: completedID,
	}, nil
}

// interventionToComplete 优先当前干预，其次最近已分配的干预，返回 nil 表示无需处理
func (s *InterventionService) interventionToComplete(ctx context.Context, tx repository.Store, st *model.Student) (*model.Intervention, error) {
	if st.CurrentInterventionID != nil {
		iv, err := tx.FindIntervention(ctx, *st.CurrentInterventionID)
		if err == nil && iv.Status == model.InterventionAssigned {
			return iv, nil
		}
		if err != nil && !errors.Is(err, util.ErrInterventionNotFound) {
			return nil, err
		}
	}

	iv, err := tx.FindLatestIntervention(ctx, st.ID, model.InterventionAssigned)
	if errors.Is(err, util.ErrInterventionNotFound) {
		return nil, nil
	}
	return iv, err
}

func (s *InterventionService) transitioned(ctx context.Context, studentID string, from, to model.StudentStatus) {
	if from == to {
		return
	}
	monitoring.TransitionCounter.WithLabelValues(string(from), string(to)).Inc()
	logger.Log.Info("Student status changed",
		zap.String("studentId", studentID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	s.broadcaster.Publish(ctx, studentID, to)
}

func (s *InterventionService) storeErr(err error, studentID, message string) error {
	if errors.Is(err, util.ErrStudentNotFound) {
		return util.NotFoundError(err, "student %s not found", studentID)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return util.StoreError(err, message)
	}
	logger.Log.Error(message, zap.String("studentId", studentID), zap.Error(err))
	return util.StoreError(err, message)
}
