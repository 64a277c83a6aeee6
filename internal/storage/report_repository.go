package storage

import (
	"context"
	"fmt"

	"recruit-agent-go/internal/storage/models"

	"go.opentelemetry.io/otel/attribute"
)

// CreateReport 保存生成的报告
func (m *MySQL) CreateReport(ctx context.Context, report *models.Report) error {
	ctx, span := m.startSpan(ctx, "MySQL.CreateReport", "INSERT", "reports")
	span.SetAttributes(attribute.String("job.id", report.JobID))

	err := m.db.WithContext(ctx).Create(report).Error
	endSpan(span, err)
	if err != nil {
		return fmt.Errorf("保存报告失败: %w", err)
	}
	return nil
}

// ListReportsByJob 列出岗位的历史报告，最新的在前
func (m *MySQL) ListReportsByJob(ctx context.Context, jobID string) ([]models.Report, error) {
	var reports []models.Report
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).Order("generated_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("查询岗位报告失败: %w", err)
	}
	return reports, nil
}

// GetReport 按ID读取报告
func (m *MySQL) GetReport(ctx context.Context, reportID string) (*models.Report, error) {
	var report models.Report
	if err := notFound(m.db.WithContext(ctx).Where("id = ?", reportID).First(&report).Error); err != nil {
		return nil, err
	}
	return &report, nil
}
