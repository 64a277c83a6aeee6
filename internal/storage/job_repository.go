package storage

import (
	"context"
	"fmt"

	"recruit-agent-go/internal/storage/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// GetJob 按ID读取岗位
func (m *MySQL) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	ctx, span := m.startSpan(ctx, "MySQL.GetJob", "SELECT", "jobs")
	span.SetAttributes(attribute.String("job.id", jobID))

	var job models.Job
	err := notFound(m.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobsByCompany 列出公司的全部岗位，最新的在前
func (m *MySQL) ListJobsByCompany(ctx context.Context, companyID string) ([]models.Job, error) {
	var jobs []models.Job
	if err := m.db.WithContext(ctx).Where("company_id = ?", companyID).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("查询公司岗位失败: %w", err)
	}
	return jobs, nil
}

// CreateJob 创建岗位
func (m *MySQL) CreateJob(ctx context.Context, job *models.Job) error {
	return m.db.WithContext(ctx).Create(job).Error
}

// UpdateJob 按主键保存岗位的全部字段
func (m *MySQL) UpdateJob(ctx context.Context, job *models.Job) error {
	return m.db.WithContext(ctx).Save(job).Error
}

// DeleteJob 删除岗位及其申请与报告
func (m *MySQL) DeleteJob(ctx context.Context, jobID string) error {
	ctx, span := m.startSpan(ctx, "MySQL.DeleteJob", "DELETE", "jobs")
	span.SetAttributes(attribute.String("job.id", jobID))

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Delete(&models.Application{}).Error; err != nil {
			return fmt.Errorf("删除岗位申请失败: %w", err)
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&models.Report{}).Error; err != nil {
			return fmt.Errorf("删除岗位报告失败: %w", err)
		}
		result := tx.Where("id = ?", jobID).Delete(&models.Job{})
		if result.Error != nil {
			return fmt.Errorf("删除岗位失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	endSpan(span, err)
	return err
}
