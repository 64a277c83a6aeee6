package scoring

import (
	"fmt"
	"time"

	"recruit-agent-go/internal/agent"
	"recruit-agent-go/internal/config"
	"recruit-agent-go/internal/logger"
)

// 评分模式
const (
	ModeBasic = "basic"
	ModeLLM   = "llm"
)

// NewEngineFromConfig llm 模式且配置了 API Key 时启用模型复核，否则只做基础评分
func NewEngineFromConfig(cfg config.ScoringConfig) (*Engine, error) {
	switch cfg.Mode {
	case "", ModeBasic:
		return NewEngine(nil), nil
	case ModeLLM:
	default:
		return nil, fmt.Errorf("未知的评分模式: %s", cfg.Mode)
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("未配置LLM API Key，使用基础评分")
		return NewEngine(nil), nil
	}

	timeout := 20 * time.Second
	if cfg.LLM.Timeout != "" {
		d, err := time.ParseDuration(cfg.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("解析 scoring.llm.timeout 失败: %w", err)
		}
		timeout = d
	}

	chat, err := agent.NewChatModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.APIURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("初始化LLM客户端失败: %w", err)
	}
	limited := agent.NewRateLimitedChatModel(chat, cfg.LLM.QPM)

	logger.Info().Str("model", chat.ModelName()).Int("qpm", cfg.LLM.QPM).Msg("启用LLM复核评分")
	return NewEngine(NewLLMProvider(limited, chat.ModelName(), timeout)), nil
}
