package scoring

import (
	"context"
	"errors"
	"fmt"

	"recruit-agent-go/internal/constants"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/tracing"
	"recruit-agent-go/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Provider 增强评分策略
type Provider interface {
	// Name 用于日志与报告
	Name() string
	// Available 当前是否可用，例如是否配置了API Key
	Available() bool
	// Score 返回增强后的结果，出错时由 Engine 回退到基础评分
	Score(ctx context.Context, requirements string, facts *types.ResumeFacts) (types.ScoringResult, error)
}

// Engine 评分入口，有可用的增强策略时优先使用
type Engine struct {
	provider Provider
}

// NewEngine provider 可以为 nil，此时只做基础评分
func NewEngine(provider Provider) *Engine {
	return &Engine{provider: provider}
}

// ModelName 报告中展示的评分方式
func (e *Engine) ModelName() string {
	if e.provider != nil && e.provider.Available() {
		return e.provider.Name()
	}
	return constants.BasicScoringModel
}

// Score 不会失败，增强策略不可用、出错或 panic 时返回基础评分结果
func (e *Engine) Score(ctx context.Context, requirements string, facts *types.ResumeFacts) (result types.ScoringResult) {
	if e.provider == nil || !e.provider.Available() {
		return Score(requirements, facts)
	}

	defer func() {
		if r := recover(); r != nil {
			e.fallback(ctx, fmt.Errorf("增强评分panic: %v", r))
			result = Score(requirements, facts)
		}
	}()

	result, err := e.provider.Score(ctx, requirements, facts)
	if err != nil {
		e.fallback(ctx, err)
		return Score(requirements, facts)
	}
	return result
}

func (e *Engine) fallback(ctx context.Context, err error) {
	errorType := tracing.ErrorTypeExternal
	if errors.Is(err, context.DeadlineExceeded) {
		errorType = tracing.ErrorTypeTimeout
	}
	tracing.RecordErrorWithInfo(trace.SpanFromContext(ctx), err, errorType,
		attribute.String("scoring.provider", e.provider.Name()))
	logger.Ctx(ctx).Warn().Err(err).Str("provider", e.provider.Name()).Str("error_type", string(errorType)).Msg("增强评分失败，回退到基础评分")
}
