package processor

import (
	"context"
	"sync"
	"time"

	"recruit-agent-go/internal/constants"
	"recruit-agent-go/internal/storage"
)

// Guard 保证同一个申请同一时刻只有一次处理在运行
type Guard interface {
	// TryAcquire 获取成功时返回释放函数；已被占用时 ok 为 false
	TryAcquire(ctx context.Context, applicationID string) (release func(), ok bool, err error)
}

// RedisGuard 基于 Redis SETNX 的跨进程互斥
type RedisGuard struct {
	locker Locker
	ttl    time.Duration
}

// NewRedisGuard ttl 应大于处理超时，避免锁在处理结束前过期
func NewRedisGuard(locker Locker, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = constants.DefaultProcessingTimeout + time.Minute
	}
	return &RedisGuard{locker: locker, ttl: ttl}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, applicationID string) (func(), bool, error) {
	key := storage.FormatKey(constants.KeyApplicationLock, applicationID)
	token, err := g.locker.AcquireLock(ctx, key, g.ttl)
	if err != nil {
		return nil, false, newPipelineError(applicationID, "lock", ErrLockFailed, err)
	}
	if token == "" {
		return nil, false, nil
	}
	release := func() {
		// 请求上下文可能已取消，释放锁不受其影响
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = g.locker.ReleaseLock(releaseCtx, key, token)
	}
	return release, true, nil
}

// MemoryGuard 进程内按申请ID互斥，没有 Redis 时使用
type MemoryGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{running: make(map[string]struct{})}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, applicationID string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[applicationID]; busy {
		return nil, false, nil
	}
	g.running[applicationID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, applicationID)
			g.mu.Unlock()
		})
	}
	return release, true, nil
}
