package parser

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind 简历文件的媒体分类
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindWordML      Kind = "wordml" // DOCX
	KindMSWord      Kind = "msword" // 旧版二进制 DOC
	KindText        Kind = "text"
	KindUnsupported Kind = "unsupported"
)

const (
	MIMEPDF    = "application/pdf"
	MIMEDOCX   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEMSWord = "application/msword"
	MIMEText   = "text/plain"
)

// Supported 是否为可解析的类型
func (k Kind) Supported() bool {
	return k == KindPDF || k == KindWordML || k == KindMSWord || k == KindText
}

// Extension 该类型的默认文件扩展名
func (k Kind) Extension() string {
	switch k {
	case KindPDF:
		return ".pdf"
	case KindWordML:
		return ".docx"
	case KindMSWord:
		return ".doc"
	case KindText:
		return ".txt"
	}
	return ""
}

// ContentType 该类型对应的MIME
func (k Kind) ContentType() string {
	switch k {
	case KindPDF:
		return MIMEPDF
	case KindWordML:
		return MIMEDOCX
	case KindMSWord:
		return MIMEMSWord
	case KindText:
		return MIMEText
	}
	return "application/octet-stream"
}

// DetectKind 根据文件内容判断类型；内容只能识别为通用容器(zip/ole)时参考扩展名
func DetectKind(data []byte, filename string) Kind {
	m := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case m.Is(MIMEPDF):
		return KindPDF
	case m.Is(MIMEDOCX):
		return KindWordML
	case m.Is(MIMEMSWord):
		return KindMSWord
	case descendsFrom(m, MIMEText):
		// csv、html 等文本子类型都按纯文本读取
		return KindText
	case m.Is("application/zip") && ext == ".docx":
		return KindWordML
	case m.Is("application/x-ole-storage") && ext == ".doc":
		return KindMSWord
	case ext == ".txt":
		return KindText
	}
	return KindUnsupported
}

// descendsFrom m 本身或其任一父类型是否为 want
func descendsFrom(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

// KindFromContentType 将上传请求声明的 Content-Type 映射为类型
func KindFromContentType(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case MIMEPDF:
		return KindPDF
	case MIMEDOCX:
		return KindWordML
	case MIMEMSWord:
		return KindMSWord
	case MIMEText:
		return KindText
	}
	return KindUnsupported
}

// KindFromFilename 按扩展名判断类型，用于邮件附件筛选
func KindFromFilename(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindWordML
	case ".doc":
		return KindMSWord
	case ".txt":
		return KindText
	}
	return KindUnsupported
}
