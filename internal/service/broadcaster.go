package service

import (
	"context"
	"intervention_backend/internal/model"
	"intervention_backend/pkg/logger"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StatusBroadcaster 向长轮询请求广播学生状态变更
// 广播只作为唤醒信号，返回前重新查询数据库
type StatusBroadcaster interface {
	Publish(ctx context.Context, studentID string, status model.StudentStatus)
	Subscribe(ctx context.Context, studentID string) (<-chan model.StudentStatus, func())
}

// MemoryBroadcaster 单实例部署时的进程内广播
type MemoryBroadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan model.StudentStatus]struct{}
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[string]map[chan model.StudentStatus]struct{})}
}

func (b *MemoryBroadcaster) Publish(_ context.Context, studentID string, status model.StudentStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[studentID] {
		select {
		case ch <- status:
		default:
		}
	}
}

func (b *MemoryBroadcaster) Subscribe(_ context.Context, studentID string) (<-chan model.StudentStatus, func()) {
	ch := make(chan model.StudentStatus, 1)
	b.mu.Lock()
	if b.subs[studentID] == nil {
		b.subs[studentID] = make(map[chan model.StudentStatus]struct{})
	}
	b.subs[studentID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[studentID], ch)
			if len(b.subs[studentID]) == 0 {
				delete(b.subs, studentID)
			}
			b.mu.Unlock()
		})
	}
}

const statusChannelPrefix = "student:status:"

// RedisBroadcaster 通过 Redis 按学生频道发布状态变更，多实例部署时同样能唤醒
type RedisBroadcaster struct {
	rdb *redis.Client
}

// NewRedisBroadcaster 创建 Redis 广播
func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, studentID string, status model.StudentStatus) {
	if err := b.rdb.Publish(ctx, statusChannelPrefix+studentID, string(status)).Err(); err != nil {
		logger.Log.Warn("Failed to publish status change", zap.String("studentId", studentID), zap.Error(err))
	}
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, studentID string) (<-chan model.StudentStatus, func()) {
	pubsub := b.rdb.Subscribe(ctx, statusChannelPrefix+studentID)
	// 等待订阅生效
	if _, err := pubsub.Receive(ctx); err != nil {
		logger.Log.Warn("Failed to subscribe to status changes", zap.String("studentId", studentID), zap.Error(err))
	}
	out := make(chan model.StudentStatus, 1)
	done := make(chan struct{})

	go func() {
		msgs := pubsub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- model.StudentStatus(msg.Payload):
				default:
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}
}
