package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recruit-agent-go/internal/logger"
)

// TikaExtractor 基于 Apache Tika Server 的文档转换器，既可作为PDF后端也可转换旧版DOC
type TikaExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 是否提取链接注释文本
	extractAnnotations bool
}

var (
	_ PDFExtractor      = (*TikaExtractor)(nil)
	_ DocumentConverter = (*TikaExtractor)(nil)
)

// TikaOption 定义配置选项函数
type TikaOption func(*TikaExtractor)

// WithAnnotations 配置是否提取PDF链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaExtractor) {
		e.extractAnnotations = extract
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaExtractor) {
		e.Client.Timeout = timeout
	}
}

// NewTikaExtractor 创建一个新的Tika转换器
func NewTikaExtractor(serverURL string, options ...TikaOption) *TikaExtractor {
	extractor := &TikaExtractor{
		ServerURL:          strings.TrimRight(serverURL, "/"),
		Client:             &http.Client{Timeout: 60 * time.Second},
		extractAnnotations: true,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// ExtractPages Tika 的纯文本接口不区分页，整份文本作为一页返回
func (e *TikaExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	text, err := e.ConvertToText(ctx, data, MIMEPDF)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	return []string{text}, nil
}

// ConvertToText 调用 PUT /tika 获取纯文本
func (e *TikaExtractor) ConvertToText(ctx context.Context, data []byte, contentType string) (string, error) {
	startTime := time.Now()
	url := fmt.Sprintf("%s/tika", e.ServerURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")
	if !e.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	textBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取Tika响应失败: %w", err)
	}

	logger.Debug().
		Str("content_type", contentType).
		Int("chars", len(textBytes)).
		Dur("duration", time.Since(startTime)).
		Msg("Tika转换完成")
	return string(textBytes), nil
}
