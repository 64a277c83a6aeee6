package agent

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// RateLimitedChatModel 对LLM调用进行限流并对可重试错误做退避重试的代理
type RateLimitedChatModel struct {
	original      model.ToolCallingChatModel
	limiter       *rate.Limiter
	maxRetries    int
	retryWaitTime time.Duration
}

var _ model.ToolCallingChatModel = (*RateLimitedChatModel)(nil)

// NewRateLimitedChatModel 按每分钟请求数限流，突发容量为 QPM 的一半
func NewRateLimitedChatModel(original model.ToolCallingChatModel, qpm int) *RateLimitedChatModel {
	if qpm <= 0 {
		qpm = 30
	}
	burst := qpm / 2
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedChatModel{
		original:      original,
		limiter:       rate.NewLimiter(rate.Limit(float64(qpm)/60.0), burst),
		maxRetries:    2,
		retryWaitTime: 500 * time.Millisecond,
	}
}

// WithRetryPolicy 设置重试策略
func (rl *RateLimitedChatModel) WithRetryPolicy(waitTime time.Duration, maxRetries int) *RateLimitedChatModel {
	rl.retryWaitTime = waitTime
	rl.maxRetries = maxRetries
	return rl
}

// Generate 代理Generate方法，增加限流和重试逻辑
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var response *schema.Message
	err := rl.retryWithBackoff(ctx, func() error {
		var genErr error
		response, genErr = rl.original.Generate(ctx, messages, opts...)
		return genErr
	})
	return response, err
}

// Stream 代理Stream方法
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]
	err := rl.retryWithBackoff(ctx, func() error {
		var streamErr error
		stream, streamErr = rl.original.Stream(ctx, messages, opts...)
		return streamErr
	})
	return stream, err
}

// WithTools 代理WithTools方法，新代理共享同一个限流器
func (rl *RateLimitedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}
	clone := *rl
	clone.original = newModel
	return &clone, nil
}

// retryWithBackoff 每次尝试前等待令牌，可重试错误按指数退避
func (rl *RateLimitedChatModel) retryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	for retry := 0; retry <= rl.maxRetries; retry++ {
		if err = rl.limiter.Wait(ctx); err != nil {
			return err
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !isRetryableError(err) || retry >= rl.maxRetries {
			return err
		}

		backoff := rl.retryWaitTime * time.Duration(1<<uint(retry))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

var retryableMarkers = []string{
	"timeout",
	"connection reset",
	"EOF",
	"connection refused",
	"429",
	"rate limit",
	"服务器繁忙",
	"请求超过限额",
}

// isRetryableError 根据错误消息判断是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
