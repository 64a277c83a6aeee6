package parser

import (
	"strings"

	"recruit-agent-go/internal/skills"
	"recruit-agent-go/internal/types"
)

const (
	// PreviewLimit 预览最多保留的字符数
	PreviewLimit = 500
	// PreviewMarker 截断标记
	PreviewMarker = "..."
)

// ExtractFacts 从简历文本中抽取邮箱、技能、长度与预览，不会失败
func ExtractFacts(text string) *types.ResumeFacts {
	return &types.ResumeFacts{
		Email:       findEmail(text),
		Skills:      skills.Match(text),
		TextLength:  len([]rune(text)),
		TextPreview: Preview(text, PreviewLimit),
	}
}

// findEmail 逐行扫描，行内同时包含 @ 和 . 时按空白切分，取第一个恰好一个 @ 且含 . 的词
func findEmail(text string) *string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "@") || !strings.Contains(line, ".") {
			continue
		}
		for _, word := range strings.Fields(line) {
			if strings.Count(word, "@") != 1 || !strings.Contains(word, ".") {
				continue
			}
			email := strings.ToLower(strings.TrimSpace(word))
			return &email
		}
	}
	return nil
}

// Preview 截取前 limit 个字符，超出时追加截断标记
func Preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + PreviewMarker
}
