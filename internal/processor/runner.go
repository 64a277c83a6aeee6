package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/storage"
)

// Processor 处理单个申请
type Processor interface {
	Process(ctx context.Context, applicationID string)
}

// guardedRun 在互斥保护下调用处理器；已有处理在运行时直接跳过
func guardedRun(ctx context.Context, guard Guard, proc Processor, applicationID string) error {
	release, ok, err := guard.TryAcquire(ctx, applicationID)
	if err != nil {
		return err
	}
	if !ok {
		logger.Ctx(ctx).Info().Str("application_id", applicationID).Msg("申请正在处理中，跳过重复投递")
		return nil
	}
	defer release()

	proc.Process(ctx, applicationID)
	return nil
}

func decodeSubmitted(body []byte) (*storage.ApplicationSubmittedMessage, error) {
	var msg storage.ApplicationSubmittedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("解析申请消息失败: %w", err)
	}
	if msg.ApplicationID == "" {
		return nil, fmt.Errorf("申请消息缺少 application_id")
	}
	return &msg, nil
}
