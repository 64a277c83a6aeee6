package processor

import (
	"context"
	"time"

	"recruit-agent-go/internal/parser"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/types"
)

// ApplicationStore 申请与岗位的读写，由 storage.MySQL 实现
type ApplicationStore interface {
	GetApplication(ctx context.Context, applicationID string) (*models.Application, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	UpdateApplicationOutcome(ctx context.Context, applicationID string, outcome storage.ApplicationOutcome) error
	MarkApplicationFlagged(ctx context.Context, applicationID string) error
}

// FileSource 简历文件读取，由 storage.MinIO 或 storage.LocalFiles 实现
type FileSource interface {
	ReadFile(ctx context.Context, ref string) ([]byte, error)
}

// TextExtractor 简历文本提取，由 parser.TextExtractor 实现
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind parser.Kind) string
}

// Scorer 评分，由 scoring.Engine 实现
type Scorer interface {
	Score(ctx context.Context, requirements string, facts *types.ResumeFacts) types.ScoringResult
}

// Locker 分布式锁，由 storage.Redis 实现
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error)
	ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error)
}
