package storage

import (
	"context"
	"fmt"

	"recruit-agent-go/internal/storage/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// CreateCompany 注册公司，邮箱已被使用时返回 ErrDuplicate
func (m *MySQL) CreateCompany(ctx context.Context, company *models.Company) error {
	ctx, span := m.startSpan(ctx, "MySQL.CreateCompany", "INSERT", "companies")
	span.SetAttributes(attribute.String("company.id", company.ID))

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Company{}).Where("email = ?", company.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("检查公司邮箱失败: %w", err)
		}
		if count > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("创建公司失败: %w", err)
		}
		return nil
	})
	endSpan(span, err)
	return err
}

// GetCompany 按ID读取公司
func (m *MySQL) GetCompany(ctx context.Context, companyID string) (*models.Company, error) {
	var company models.Company
	if err := notFound(m.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error); err != nil {
		return nil, err
	}
	return &company, nil
}

// GetCompanyByAPIKey 通过API Key查找公司
func (m *MySQL) GetCompanyByAPIKey(ctx context.Context, apiKey string) (*models.Company, error) {
	var company models.Company
	if err := notFound(m.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&company).Error); err != nil {
		return nil, err
	}
	return &company, nil
}
