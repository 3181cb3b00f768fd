package service

import (
	"context"
	"fmt"
	"intervention_backend/pkg/logger"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StudentLocker 串行化同一学生的写操作
// 不同学生之间互不阻塞
type StudentLocker interface {
	Lock(ctx context.Context, studentID string) (unlock func(), err error)
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker 进程内按学生加锁，无人持有时回收
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewMemoryLocker 创建进程内锁
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*lockEntry)}
}

func (l *MemoryLocker) Lock(ctx context.Context, studentID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[studentID]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[studentID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(studentID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(studentID, e)
		})
	}, nil
}

func (l *MemoryLocker) release(studentID string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, studentID)
	}
}

const lockKeyPrefix = "lock:student:"

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker 基于 SET NX 的跨实例锁
// 锁在 ttl 后过期
type RedisLocker struct {
	local *MemoryLocker
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker 创建 Redis 锁，ttl 不大于0时使用默认值
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		local: NewMemoryLocker(),
		rdb:   rdb,
		ttl:   ttl,
		retry: 25 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, studentID string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, studentID)
	if err != nil {
		return nil, err
	}

	key := lockKeyPrefix + studentID
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("acquire student lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		}
	}

	return func() {
		// 调用方的 ctx 可能已取消
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			logger.Log.Warn("Failed to release student lock, lease expires after ttl",
				zap.String("studentId", studentID), zap.Duration("ttl", l.ttl), zap.Error(err))
		}
		unlockLocal()
	}, nil
}
