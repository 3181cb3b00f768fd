package service

import (
	"context"
	"errors"
	"intervention_backend/internal/repository"
	"intervention_backend/internal/util"
	"intervention_backend/pkg/logger"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReminderScheduler 定时提醒导师处理超时未处理的干预
type ReminderScheduler struct {
	cronEngine *cron.Cron
	store      repository.Store
	dispatcher *Dispatcher
	spec       string
	staleAfter atomic.Int64
	now        func() time.Time
}

// NewReminderScheduler 创建提醒任务，spec 为 cron 表达式
func NewReminderScheduler(store repository.Store, dispatcher *Dispatcher, spec string, staleAfter time.Duration) *ReminderScheduler {
	s := &ReminderScheduler{
		cronEngine: cron.New(cron.WithLocation(time.UTC)),
		store:      store,
		dispatcher: dispatcher,
		spec:       spec,
		now:        func() time.Time { return time.Now().UTC() },
	}
	s.SetStaleAfter(staleAfter)
	return s
}

// SetStaleAfter 配置热更新时修改超时时长
func (s *ReminderScheduler) SetStaleAfter(d time.Duration) {
	if d <= 0 {
		d = 24 * time.Hour
	}
	s.staleAfter.Store(int64(d))
}

// Start 注册并启动定时任务
func (s *ReminderScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.RemindStale(ctx); err != nil {
			logger.Log.Error("Stale intervention sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	s.cronEngine.Start()
	logger.Log.Info("Reminder scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop 等待正在执行的任务结束
func (s *ReminderScheduler) Stop() {
	<-s.cronEngine.Stop().Done()
}

// RemindStale 为每条超时的待处理干预发送提醒，返回提醒数量
func (s *ReminderScheduler) RemindStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-time.Duration(s.staleAfter.Load()))
	stale, err := s.store.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, util.StoreError(err, "failed to list stale interventions")
	}

	sent := 0
	for _, iv := range stale {
		name := ""
		st, err := s.store.FindStudent(ctx, iv.StudentID)
		if err != nil && !errors.Is(err, util.ErrStudentNotFound) {
			return sent, util.StoreError(err, "failed to load student")
		}
		if st != nil {
			name = st.Name
		}

		s.dispatcher.Dispatch(InterventionNotification{
			Event:          EventInterventionReminder,
			StudentID:      iv.StudentID,
			StudentName:    name,
			InterventionID: iv.ID,
			Reason:         iv.Reason,
			Timestamp:      s.now(),
		})
		sent++
	}

	if sent > 0 {
		logger.Log.Info("Stale intervention reminders dispatched", zap.Int("count", sent))
	}
	return sent, nil
}
