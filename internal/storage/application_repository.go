package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplicationOutcome 一次处理的终态结果
type ApplicationOutcome struct {
	// 为 nil 时保留原 parsed_data
	Facts       *types.ResumeFacts
	Score       int
	Status      types.ApplicationStatus
	Feedback    string
	ProcessedAt time.Time
}

// GetApplication 按ID读取申请
func (m *MySQL) GetApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	ctx, span := m.startSpan(ctx, "MySQL.GetApplication", "SELECT", "applications")
	span.SetAttributes(attribute.String("application.id", applicationID))

	var app models.Application
	err := notFound(m.db.WithContext(ctx).Where("id = ?", applicationID).First(&app).Error)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ListApplicationsByJob 按提交时间列出岗位下的申请，status 为空时不过滤
func (m *MySQL) ListApplicationsByJob(ctx context.Context, jobID string, status string) ([]models.Application, error) {
	ctx, span := m.startSpan(ctx, "MySQL.ListApplicationsByJob", "SELECT", "applications")
	span.SetAttributes(attribute.String("job.id", jobID))

	query := m.db.WithContext(ctx).Where("job_id = ?", jobID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var apps []models.Application
	err := query.Order("submitted_at ASC").Find(&apps).Error
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("查询岗位 %s 的申请失败: %w", jobID, err)
	}
	span.SetAttributes(attribute.Int("applications.count", len(apps)))
	return apps, nil
}

// CreateApplicationWithOutbox 在同一事务中写入申请和待投递的事件
func (m *MySQL) CreateApplicationWithOutbox(ctx context.Context, app *models.Application, msg *models.OutboxMessage) error {
	ctx, span := m.startSpan(ctx, "MySQL.CreateApplicationWithOutbox", "INSERT", "applications")
	span.SetAttributes(attribute.String("application.id", app.ID))

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return fmt.Errorf("创建申请记录失败: %w", err)
		}
		if msg == nil {
			return nil
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("写入outbox消息失败: %w", err)
		}
		return nil
	})
	endSpan(span, err)
	return err
}

// UpdateApplicationOutcome 在一个事务中写入解析数据、分数、状态与反馈
func (m *MySQL) UpdateApplicationOutcome(ctx context.Context, applicationID string, outcome ApplicationOutcome) error {
	ctx, span := m.startSpan(ctx, "MySQL.UpdateApplicationOutcome", "UPDATE", "applications")
	span.SetAttributes(
		attribute.String("application.id", applicationID),
		attribute.Int("application.score", outcome.Score),
		attribute.String("application.status", string(outcome.Status)),
	)

	updates := map[string]interface{}{
		"ai_score":     outcome.Score,
		"status":       string(outcome.Status),
		"feedback":     outcome.Feedback,
		"processed_at": outcome.ProcessedAt,
	}
	if outcome.Facts != nil {
		data, err := json.Marshal(outcome.Facts)
		if err != nil {
			endSpan(span, err)
			return fmt.Errorf("序列化解析数据失败: %w", err)
		}
		updates["parsed_data"] = datatypes.JSON(data)
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Application{}).Where("id = ?", applicationID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	endSpan(span, err)
	return err
}

// MarkApplicationFlagged 处理失败时将申请标记为 flagged，保留已有分数与解析数据
func (m *MySQL) MarkApplicationFlagged(ctx context.Context, applicationID string) error {
	ctx, span := m.startSpan(ctx, "MySQL.MarkApplicationFlagged", "UPDATE", "applications")
	span.SetAttributes(attribute.String("application.id", applicationID))

	result := m.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", applicationID).
		Updates(map[string]interface{}{
			"status":       string(types.StatusFlagged),
			"processed_at": time.Now(),
		})
	err := result.Error
	if err == nil && result.RowsAffected == 0 {
		err = ErrNotFound
	}
	endSpan(span, err)
	return err
}
