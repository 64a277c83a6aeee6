package processor

import (
	"context"
	"fmt"
	"sync"

	"recruit-agent-go/internal/logger"
)

// ConsumerSource 消息消费来源，由 storage.RabbitMQ 实现
type ConsumerSource interface {
	StartConsumer(ctx context.Context, queueName string, prefetchCount int, handler func(context.Context, []byte) bool) (<-chan struct{}, error)
}

// ApplicationConsumer 从 RabbitMQ 消费申请提交事件并运行流水线
type ApplicationConsumer struct {
	source   ConsumerSource
	proc     Processor
	guard    Guard
	queue    string
	prefetch int
	workers  int

	wg sync.WaitGroup
}

// NewApplicationConsumer 创建消费者，workers 个独立通道并行消费同一队列
func NewApplicationConsumer(source ConsumerSource, proc Processor, guard Guard, queue string, prefetch, workers int) *ApplicationConsumer {
	if workers <= 0 {
		workers = 1
	}
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &ApplicationConsumer{
		source:   source,
		proc:     proc,
		guard:    guard,
		queue:    queue,
		prefetch: prefetch,
		workers:  workers,
	}
}

// Start 启动所有消费协程，ctx 取消后停止
func (c *ApplicationConsumer) Start(ctx context.Context) error {
	for i := 0; i < c.workers; i++ {
		done, err := c.source.StartConsumer(ctx, c.queue, c.prefetch, c.handle)
		if err != nil {
			return fmt.Errorf("启动第 %d 个消费者失败: %w", i+1, err)
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			<-done
		}()
	}
	logger.Info().Str("queue", c.queue).Int("workers", c.workers).Msg("申请消费者已启动")
	return nil
}

// Wait 等待所有消费协程退出
func (c *ApplicationConsumer) Wait() {
	c.wg.Wait()
}

// handle 返回 false 时消息重新入队
func (c *ApplicationConsumer) handle(ctx context.Context, body []byte) bool {
	msg, err := decodeSubmitted(body)
	if err != nil {
		// 格式错误的消息直接确认丢弃
		logger.Ctx(ctx).Error().Err(err).Bytes("body", body).Msg("丢弃无法解析的消息")
		return true
	}

	if err := guardedRun(ctx, c.guard, c.proc, msg.ApplicationID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("application_id", msg.ApplicationID).Msg("处理申请前获取锁失败，消息重新入队")
		return false
	}
	return true
}
