package processor // 申请处理流水线：读取简历、抽取事实、评分并落库

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recruit-agent-go/internal/constants"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/parser"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/tracing"
	"recruit-agent-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("processor")

// ApplicationProcessor 单个申请的处理流程
type ApplicationProcessor struct {
	store     ApplicationStore
	files     FileSource
	extractor TextExtractor
	scorer    Scorer
	timeout   time.Duration
	now       func() time.Time
}

// ProcessorOption 配置 ApplicationProcessor
type ProcessorOption func(*ApplicationProcessor)

// WithProcessingTimeout 设置单次处理超时
func WithProcessingTimeout(d time.Duration) ProcessorOption {
	return func(p *ApplicationProcessor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithClock 替换时间来源，测试用
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *ApplicationProcessor) {
		p.now = now
	}
}

// NewApplicationProcessor files 可以为 nil，此时所有申请按无简历处理
func NewApplicationProcessor(store ApplicationStore, files FileSource, extractor TextExtractor, scorer Scorer, opts ...ProcessorOption) *ApplicationProcessor {
	p := &ApplicationProcessor{
		store:     store,
		files:     files,
		extractor: extractor,
		scorer:    scorer,
		timeout:   constants.DefaultProcessingTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process 处理一个申请，从不返回错误。
// 申请或岗位不存在时什么也不做；其余失败都会把申请标记为 flagged。
func (p *ApplicationProcessor) Process(ctx context.Context, applicationID string) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "ApplicationProcessor.Process",
		trace.WithAttributes(attribute.String("application.id", applicationID)))
	defer span.End()

	log := logger.Ctx(ctx).With().Str("application_id", applicationID).Logger()
	startTime := time.Now()

	app, job, err := p.load(ctx, applicationID)
	if err != nil {
		if errors.Is(err, ErrApplicationNotFound) || errors.Is(err, ErrJobNotFound) {
			log.Info().Err(err).Msg("申请或岗位不存在，跳过处理")
			span.SetStatus(codes.Ok, "skipped")
			return
		}
		// 读取失败时无法确认记录存在，只记录日志
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		log.Error().Err(err).Msg("加载申请失败")
		return
	}
	span.SetAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("application.email", tracing.SafeAttributeValue("applicant_email", app.ApplicantEmail, tracing.DefaultMaxLength)),
	)

	result, err := p.safeRun(ctx, app, job)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		log.Error().Err(err).Dur("duration", time.Since(startTime)).Msg("申请处理失败，标记为 flagged")
		// 原上下文可能已超时，标记操作使用独立的短超时
		flagCtx, flagCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer flagCancel()
		if flagErr := p.store.MarkApplicationFlagged(flagCtx, applicationID); flagErr != nil {
			log.Error().Err(flagErr).Msg("标记申请为 flagged 失败")
		}
		return
	}

	span.SetAttributes(
		attribute.Int("application.score", result.Score),
		attribute.String("application.status", string(result.Status)),
		attribute.String("application.feedback", tracing.SafeFeedback(result.Feedback)),
	)
	log.Info().
		Int("score", result.Score).
		Str("status", string(result.Status)).
		Dur("duration", time.Since(startTime)).
		Msg("申请处理完成")
}

func (p *ApplicationProcessor) load(ctx context.Context, applicationID string) (*models.Application, *models.Job, error) {
	app, err := p.store.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, newPipelineError(applicationID, "load_application", ErrApplicationNotFound, nil)
		}
		return nil, nil, newPipelineError(applicationID, "load_application", err, nil)
	}

	job, err := p.store.GetJob(ctx, app.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, newPipelineError(applicationID, "load_job", ErrJobNotFound, nil)
		}
		return nil, nil, newPipelineError(applicationID, "load_job", err, nil)
	}
	return app, job, nil
}

// safeRun 将 run 中的 panic 转为错误，由调用方标记为 flagged
func (p *ApplicationProcessor) safeRun(ctx context.Context, app *models.Application, job *models.Job) (result types.ScoringResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPipelineError(app.ID, "run", ErrUnexpectedPanic, fmt.Errorf("%v", r))
		}
	}()
	return p.run(ctx, app, job)
}

func (p *ApplicationProcessor) run(ctx context.Context, app *models.Application, job *models.Job) (types.ScoringResult, error) {
	facts, err := p.extractFacts(ctx, app)
	if err != nil {
		return types.ScoringResult{}, err
	}

	result := p.scorer.Score(ctx, job.Requirements, facts)

	outcome := storage.ApplicationOutcome{
		Facts:       facts,
		Score:       result.Score,
		Status:      result.Status,
		Feedback:    result.Feedback,
		ProcessedAt: p.now(),
	}
	if err := p.store.UpdateApplicationOutcome(ctx, app.ID, outcome); err != nil {
		return types.ScoringResult{}, newPipelineError(app.ID, "persist", ErrPersistFailed, err)
	}
	return result, nil
}

// extractFacts 没有简历、文件已不存在或类型无法解析时返回 nil
func (p *ApplicationProcessor) extractFacts(ctx context.Context, app *models.Application) (*types.ResumeFacts, error) {
	if app.ResumeFile == "" || p.files == nil {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "ApplicationProcessor.extractFacts")
	defer span.End()

	data, err := p.files.ReadFile(ctx, app.ResumeFile)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Ctx(ctx).Warn().Str("application_id", app.ID).Str("resume_file", app.ResumeFile).Msg("简历文件不存在，按无简历处理")
			return nil, nil
		}
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, newPipelineError(app.ID, "read_resume", ErrReadResumeFailed, err)
	}

	kind := parser.DetectKind(data, app.ResumeFile)
	span.SetAttributes(attribute.String("resume.kind", string(kind)))
	if !kind.Supported() {
		logger.Ctx(ctx).Warn().Str("application_id", app.ID).Str("resume_file", app.ResumeFile).Msg("简历类型不支持，按未解析处理")
		return nil, nil
	}

	text := p.extractor.Extract(ctx, data, kind)
	facts := parser.ExtractFacts(text)
	mergeSubmissionMetadata(facts, app.ParsedData)

	span.SetAttributes(
		attribute.Int("resume.text_length", facts.TextLength),
		attribute.Int("resume.skills", len(facts.Skills)),
	)
	return facts, nil
}

// mergeSubmissionMetadata 保留 webhook 提交时写入的来源、主题与正文预览
func mergeSubmissionMetadata(facts *types.ResumeFacts, existing []byte) {
	if facts == nil || len(existing) == 0 {
		return
	}
	var prev types.ResumeFacts
	if err := json.Unmarshal(existing, &prev); err != nil {
		return
	}
	facts.Source = prev.Source
	facts.Subject = prev.Subject
	facts.BodyPreview = prev.BodyPreview
}
