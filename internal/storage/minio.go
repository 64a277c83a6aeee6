package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"recruit-agent-go/internal/config"
	"recruit-agent-go/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// MinIO 提供对象存储功能，简历原件与报告分桶存放
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	resumesBucket string
	reportsBucket string
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		resumesBucket: cfg.ResumesBucket,
		reportsBucket: cfg.ReportsBucket,
	}
	if m.resumesBucket == "" {
		m.resumesBucket = "resumes"
	}
	if m.reportsBucket == "" {
		m.reportsBucket = "reports"
	}

	for _, bucket := range []string{m.resumesBucket, m.reportsBucket} {
		if err := m.ensureBucketExists(ctx, bucket, cfg.Location); err != nil {
			return nil, err
		}
	}

	// 生命周期规则失败不影响使用
	if cfg.ResumeExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.resumesBucket, "expire-resumes", cfg.ResumeExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", m.resumesBucket).Msg("设置生命周期规则失败")
		}
	}
	if cfg.ReportExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.reportsBucket, "expire-reports", cfg.ReportExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", m.reportsBucket).Msg("设置生命周期规则失败")
		}
	}
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	logger.Info().Str("bucket", bucketName).Msg("已创建存储桶")
	return nil
}

// setupBucketLifecycle 为指定存储桶设置过期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, cfg)
}

// ResumeObjectKey 简历原件的对象键
func ResumeObjectKey(applicationID, ext string) string {
	return fmt.Sprintf("resume/%s/original%s", applicationID, ext)
}

// ReportObjectKey 文本报告的对象键
func ReportObjectKey(jobID, reportID string) string {
	return fmt.Sprintf("reports/%s/%s.txt", jobID, reportID)
}

// SaveResume 上传简历原件，返回对象键
func (m *MinIO) SaveResume(ctx context.Context, applicationID, ext string, data []byte, contentType string) (string, error) {
	objectName := ResumeObjectKey(applicationID, ext)
	_, err := m.client.PutObject(ctx, m.resumesBucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.resumesBucket, objectName, err)
	}
	return objectName, nil
}

// ReadFile 下载简历原件
func (m *MinIO) ReadFile(ctx context.Context, objectName string) ([]byte, error) {
	return m.download(ctx, m.resumesBucket, objectName)
}

// UploadReport 上传文本报告，返回对象键
func (m *MinIO) UploadReport(ctx context.Context, jobID, reportID, text string) (string, error) {
	objectName := ReportObjectKey(jobID, reportID)
	_, err := m.client.PutObject(ctx, m.reportsBucket, objectName, bytes.NewReader([]byte(text)), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", fmt.Errorf("上传报告 %s 到存储桶 %s 失败: %w", objectName, m.reportsBucket, err)
	}
	return objectName, nil
}

// ReportDownloadURL 生成报告的预签名下载地址
func (m *MinIO) ReportDownloadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", "attachment")
	u, err := m.client.PresignedGetObject(ctx, m.reportsBucket, objectName, expiry, params)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}

func (m *MinIO) download(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucketName, objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取对象 %s/%s 失败: %w", bucketName, objectName, err)
	}
	return data, nil
}
