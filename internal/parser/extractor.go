package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"recruit-agent-go/internal/logger"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// PDFExtractor 按页提取PDF文本的后端
type PDFExtractor interface {
	// ExtractPages 返回能成功解析的各页文本，无法解析的页不出现在结果中
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// DocumentConverter 将二进制文档转换为纯文本的外部服务 (例如Tika)
type DocumentConverter interface {
	ConvertToText(ctx context.Context, data []byte, contentType string) (string, error)
}

// TextExtractor 简历文本提取器，任何失败都返回空文本
type TextExtractor struct {
	pdf       PDFExtractor
	converter DocumentConverter
}

// ExtractorOption 提取器配置项
type ExtractorOption func(*TextExtractor)

// WithPDFExtractor 指定PDF后端
func WithPDFExtractor(p PDFExtractor) ExtractorOption {
	return func(e *TextExtractor) {
		e.pdf = p
	}
}

// WithDocumentConverter 指定旧版DOC的转换服务
func WithDocumentConverter(c DocumentConverter) ExtractorOption {
	return func(e *TextExtractor) {
		e.converter = c
	}
}

// NewTextExtractor 创建提取器，默认使用 ledongthuc/pdf 后端
func NewTextExtractor(options ...ExtractorOption) *TextExtractor {
	e := &TextExtractor{pdf: NewLedongthucPDFExtractor()}
	for _, option := range options {
		option(e)
	}
	return e
}

// Extract 按类型提取文本，不会返回错误
func (e *TextExtractor) Extract(ctx context.Context, data []byte, kind Kind) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Str("kind", string(kind)).Interface("panic", r).Msg("简历文本提取发生panic，返回空文本")
			text = ""
		}
	}()

	var err error
	switch kind {
	case KindPDF:
		text, err = e.extractPDF(ctx, data)
	case KindWordML:
		text, err = extractWordML(data)
	case KindMSWord:
		text, err = e.extractLegacyDoc(ctx, data)
	case KindText:
		text = decodePlainText(data)
	default:
		err = fmt.Errorf("不支持的文件类型: %s", kind)
	}
	if err != nil {
		logger.Warn().Err(err).Str("kind", string(kind)).Int("size", len(data)).Msg("简历文本提取失败，返回空文本")
		return ""
	}
	return text
}

func (e *TextExtractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	pages, err := e.pdf.ExtractPages(ctx, data)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

func (e *TextExtractor) extractLegacyDoc(ctx context.Context, data []byte) (string, error) {
	if e.converter != nil {
		text, err := e.converter.ConvertToText(ctx, data, MIMEMSWord)
		if err == nil {
			return text, nil
		}
		logger.Warn().Err(err).Msg("DOC转换服务失败，退回二进制文本扫描")
	}
	return scanPrintableRuns(data, 4), nil
}

// extractWordML 逐段读取 word/document.xml，跳过空段落，以换行连接
func extractWordML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("打开docx失败: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx中缺少word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("读取document.xml失败: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("解析document.xml失败: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if strings.TrimSpace(current.String()) != "" {
					paragraphs = append(paragraphs, current.String())
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// decodePlainText UTF-8 解码，非法字节直接丢弃
func decodePlainText(data []byte) string {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return strings.ReplaceAll(string(out), "\uFFFD", "")
}

// scanPrintableRuns 从二进制内容中收集可打印ASCII片段，NUL字节视为UTF-16填充跳过
func scanPrintableRuns(data []byte, minRun int) string {
	var (
		runs    []string
		current []byte
	)
	flush := func() {
		s := strings.TrimSpace(string(current))
		if len(s) >= minRun {
			runs = append(runs, s)
		}
		current = current[:0]
	}
	for _, b := range data {
		switch {
		case b == 0:
			continue
		case b == '\r' || b == '\n':
			flush()
		case b == '\t' || (b >= 0x20 && b < 0x7f):
			current = append(current, b)
		default:
			flush()
		}
	}
	flush()
	return strings.Join(runs, "\n")
}
