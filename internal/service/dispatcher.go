package service

import (
	"context"
	"errors"
	"fmt"
	"intervention_backend/internal/util"
	"intervention_backend/pkg/logger"
	"intervention_backend/pkg/monitoring"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// MaxInFlight 同时发送的通知上限，超出的在各自协程中等待，不阻塞调用方
const MaxInFlight = 32

// Dispatcher 异步发送通知，每条通知独立协程、独立超时，失败只记录日志
type Dispatcher struct {
	notifier Notifier
	timeout  atomic.Int64
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
}

// NewDispatcher 创建通知分发器
func NewDispatcher(notifier Notifier, timeout time.Duration) *Dispatcher {
	d := &Dispatcher{notifier: notifier, sem: semaphore.NewWeighted(MaxInFlight)}
	d.SetTimeout(timeout)
	return d
}

// SetTimeout 配置热更新时修改单条通知的超时时间
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d.timeout.Store(int64(timeout))
}

// Dispatch 立即返回
func (d *Dispatcher) Dispatch(n InterventionNotification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(n)
	}()
}

func (d *Dispatcher) deliver(n InterventionNotification) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.timeout.Load()))
	defer cancel()

	err := d.sem.Acquire(ctx, 1)
	if err == nil {
		err = d.safeNotify(ctx, n)
		d.sem.Release(1)
	}
	monitoring.DispatchDuration.Observe(time.Since(start).Seconds())

	fields := []zap.Field{
		zap.String("event", string(n.Event)),
		zap.String("studentId", n.StudentID),
		zap.String("interventionId", n.InterventionID),
	}
	switch {
	case err == nil:
		monitoring.DispatchCounter.WithLabelValues(string(n.Event), "sent").Inc()
		logger.Log.Info("Reviewer notified", fields...)
	case errors.Is(err, util.ErrNotifierDisabled):
		monitoring.DispatchCounter.WithLabelValues(string(n.Event), "skipped").Inc()
		logger.Log.Debug("Reviewer webhook not configured, notification skipped", fields...)
	default:
		monitoring.DispatchCounter.WithLabelValues(string(n.Event), "failed").Inc()
		err = util.DispatchError(err, "reviewer notification failed")
		logger.Log.Warn("Reviewer notification failed", append(fields, zap.Error(err))...)
	}
}

func (d *Dispatcher) safeNotify(ctx context.Context, n InterventionNotification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.notifier.Notify(ctx, n)
}

// Wait 等待所有通知发送结束
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown 等待发送中的通知，ctx 结束时放弃
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
