package processor

import (
	"context"
	"errors"
	"sync"

	"recruit-agent-go/internal/logger"
)

// ErrDispatcherFull 本地队列已满，outbox 会在下一轮重新投递
var ErrDispatcherFull = errors.New("本地处理队列已满")

// ErrDispatcherStopped 调度器已停止
var ErrDispatcherStopped = errors.New("本地调度器已停止")

// LocalDispatcher 没有配置 RabbitMQ 时在进程内运行流水线的有界协程池。
// 它实现 outbox.Publisher，因此 outbox relay 可以直接投递给它。
type LocalDispatcher struct {
	proc    Processor
	guard   Guard
	workers int
	queue   chan string

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewLocalDispatcher workers 为并发处理数，队列容量为 workers 的 16 倍
func NewLocalDispatcher(proc Processor, guard Guard, workers int) *LocalDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &LocalDispatcher{
		proc:    proc,
		guard:   guard,
		workers: workers,
		queue:   make(chan string, workers*16),
	}
}

// Start 启动工作协程
func (d *LocalDispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx, i)
	}
	logger.Info().Int("workers", d.workers).Msg("本地申请调度器已启动")
}

func (d *LocalDispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case applicationID, ok := <-d.queue:
			if !ok {
				return
			}
			if err := guardedRun(ctx, d.guard, d.proc, applicationID); err != nil {
				logger.Error().Err(err).Int("worker", id).Str("application_id", applicationID).Msg("本地处理申请失败")
			}
		}
	}
}

// Dispatch 将申请放入队列，不阻塞
func (d *LocalDispatcher) Dispatch(applicationID string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- applicationID:
		return nil
	default:
		return ErrDispatcherFull
	}
}

// PublishMessage 接收 outbox relay 投递的申请提交事件
func (d *LocalDispatcher) PublishMessage(_ context.Context, _, _ string, message []byte, _ bool) error {
	msg, err := decodeSubmitted(message)
	if err != nil {
		return err
	}
	return d.Dispatch(msg.ApplicationID)
}

// Stop 停止接收新任务，等待队列中的任务处理完毕
func (d *LocalDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
	logger.Info().Msg("本地申请调度器已停止")
}
