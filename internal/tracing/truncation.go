package tracing

import (
	"strings"
)

// span 属性长度上限
const (
	DefaultMaxLength  = 200
	MaxSQLLength      = 500
	MaxRedisLength    = 100
	MaxFeedbackLength = 150
)

// sensitiveKeys 属性名包含这些关键字时值需要掩码
var sensitiveKeys = []string{"email", "phone", "api_key", "apikey", "password", "secret", "token", "姓名", "电话"}

// SafeAttributeValue 敏感属性掩码，其余属性按 maxLength 截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range sensitiveKeys {
		if strings.Contains(lowerName, keyword) {
			if strings.Contains(lowerName, "email") {
				return MaskEmail(value)
			}
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskEmail 保留邮箱本地部分首字符与域名，例如 j***@example.com
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskPII(email)
	}
	local := []rune(email[:at])
	return string(local[0]) + strings.Repeat("*", len(local)-1) + email[at:]
}

// MaskPII 保留首尾少量字符，其余替换为 *
func MaskPII(value string) string {
	runes := []rune(value)
	switch n := len(runes); {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

// SafeFeedback 评分反馈可能很长，写入 span 前截断
func SafeFeedback(feedback string) string {
	return TruncateString(feedback, MaxFeedbackLength)
}
