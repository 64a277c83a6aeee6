package parser

import (
	"context"
	"fmt"
	"time"

	"recruit-agent-go/internal/config"
	"recruit-agent-go/internal/logger"
)

// PDF 后端名称
const (
	PDFBackendLedongthuc = "ledongthuc"
	PDFBackendEino       = "eino"
	PDFBackendTika       = "tika"
)

// NewTextExtractorFromConfig 按配置选择PDF后端；配置了Tika地址时旧版DOC交给Tika转换
func NewTextExtractorFromConfig(ctx context.Context, cfg config.ExtractorConfig) (*TextExtractor, error) {
	var options []ExtractorOption

	var tika *TikaExtractor
	if cfg.Tika.ServerURL != "" {
		var tikaOptions []TikaOption
		if cfg.Tika.Timeout > 0 {
			tikaOptions = append(tikaOptions, WithTimeout(time.Duration(cfg.Tika.Timeout)*time.Second))
		}
		tika = NewTikaExtractor(cfg.Tika.ServerURL, tikaOptions...)
		options = append(options, WithDocumentConverter(tika))
	}

	switch cfg.PDFBackend {
	case "", PDFBackendLedongthuc:
	case PDFBackendEino:
		eino, err := NewEinoPDFTextExtractor(ctx)
		if err != nil {
			return nil, err
		}
		options = append(options, WithPDFExtractor(eino))
	case PDFBackendTika:
		if tika == nil {
			return nil, fmt.Errorf("pdf_backend 为 tika 时必须配置 tika.server_url")
		}
		options = append(options, WithPDFExtractor(tika))
	default:
		return nil, fmt.Errorf("未知的PDF后端: %s", cfg.PDFBackend)
	}

	logger.Info().
		Str("pdf_backend", cfg.PDFBackend).
		Bool("tika", tika != nil).
		Msg("文本提取器初始化完成")
	return NewTextExtractor(options...), nil
}
