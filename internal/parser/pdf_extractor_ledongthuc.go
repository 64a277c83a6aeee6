package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// LedongthucPDFExtractor 基于 ledongthuc/pdf 的纯Go PDF后端
type LedongthucPDFExtractor struct{}

var _ PDFExtractor = (*LedongthucPDFExtractor)(nil)

// NewLedongthucPDFExtractor 创建默认PDF后端
func NewLedongthucPDFExtractor() *LedongthucPDFExtractor {
	return &LedongthucPDFExtractor{}
}

// ExtractPages 逐页提取文本，单页失败时跳过该页
func (e *LedongthucPDFExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("打开PDF失败: %w", err)
	}

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		if text, ok := readPage(r, i); ok {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

// readPage 读取单页文本；损坏的页会让底层库panic，这里按无文本处理
func readPage(r *pdf.Reader, index int) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()

	page := r.Page(index)
	if page.V.IsNull() {
		return "", false
	}
	content, err := page.GetPlainText(nil)
	if err != nil || content == "" {
		return "", false
	}
	return content, true
}
