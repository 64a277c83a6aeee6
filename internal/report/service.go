package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/notify"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/tracing"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrJobNotFound 岗位不存在
	ErrJobNotFound = errors.New("job not found")
	// ErrForbidden 岗位不属于当前公司
	ErrForbidden = errors.New("job does not belong to company")
)

var tracer = otel.Tracer("report")

// Store 报告所需的持久化操作，由 storage.MySQL 实现
type Store interface {
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListApplicationsByJob(ctx context.Context, jobID string, status string) ([]models.Application, error)
	CreateReport(ctx context.Context, report *models.Report) error
}

// Archive 报告归档，由 storage.MinIO 实现
type Archive interface {
	UploadReport(ctx context.Context, jobID, reportID, text string) (string, error)
}

// Service 生成、归档并发送报告
type Service struct {
	store     Store
	archive   Archive
	mailer    notify.Mailer
	modelName string
	now       func() time.Time
}

// NewService archive 与 mailer 可以为 nil，对应步骤会被跳过
func NewService(store Store, archive Archive, mailer notify.Mailer, modelName string) *Service {
	return &Service{
		store:     store,
		archive:   archive,
		mailer:    mailer,
		modelName: modelName,
		now:       time.Now,
	}
}

// Generate 为公司的岗位生成一份报告
func (s *Service) Generate(ctx context.Context, companyID, jobID string) (*models.Report, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID), attribute.String("company.id", companyID))

	job, err := s.OwnedJob(ctx, companyID, jobID)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	apps, err := s.store.ListApplicationsByJob(ctx, jobID, "")
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}

	now := s.now()
	summary := Summarize(job, apps, s.modelName, now)
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("序列化报告摘要失败: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("生成报告ID失败: %w", err)
	}
	report := &models.Report{
		ID:          id.String(),
		JobID:       jobID,
		Summary:     summaryJSON,
		SentTo:      models.JSONList(nil),
		GeneratedAt: now,
	}

	text := RenderText(summary)
	if s.archive != nil {
		objectKey, err := s.archive.UploadReport(ctx, jobID, report.ID, text)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeStorage)
			return nil, fmt.Errorf("归档报告失败: %w", err)
		}
		report.FileURL = objectKey
	}

	recipients := models.StringList(job.ReportEmails)
	if len(recipients) > 0 && s.mailer != nil {
		err := s.mailer.SendReport(ctx, notify.ReportMail{
			To:       recipients,
			Summary:  summary,
			Text:     text,
			Filename: reportFilename(job.JobTitle, now),
		})
		if err != nil {
			// 邮件失败不影响报告本身
			logger.Ctx(ctx).Error().Err(err).Str("job_id", jobID).Strs("to", recipients).Msg("发送报告邮件失败")
		} else {
			report.SentTo = models.JSONList(recipients)
		}
	}

	if err := s.store.CreateReport(ctx, report); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("job_id", jobID).
		Str("report_id", report.ID).
		Int("applications", summary.TotalApplications).
		Msg("报告已生成")
	return report, nil
}

// OwnedJob 读取岗位并校验归属
func (s *Service) OwnedJob(ctx context.Context, companyID, jobID string) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.CompanyID != companyID {
		return nil, ErrForbidden
	}
	return job, nil
}

func reportFilename(jobTitle string, now time.Time) string {
	name := strings.Join(strings.Fields(jobTitle), "_")
	if name == "" {
		name = "job"
	}
	return fmt.Sprintf("report_%s_%s.txt", name, now.Format("20060102_150405"))
}
