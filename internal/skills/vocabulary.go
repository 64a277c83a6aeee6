package skills

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// vocabulary 简历技能抽取与岗位要求关键词抽取共用的词表，顺序即输出顺序
var vocabulary = [...]string{
	"python", "javascript", "java", "react", "angular", "vue", "node", "express",
	"django", "flask", "fastapi", "sql", "nosql", "mongodb", "postgresql", "mysql",
	"aws", "azure", "gcp", "docker", "kubernetes", "ci/cd", "git", "jenkins",
	"rest", "graphql", "typescript", "html", "css", "sass", "tailwind", "bootstrap",
	"machine learning", "ai", "data science", "pandas", "numpy", "tensorflow", "pytorch",
	"agile", "scrum", "project management", "leadership", "communication", "teamwork",
}

var titleCaser = cases.Title(language.English)

// Vocabulary 返回词表副本
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary[:])
	return out
}

// Match 返回在文本中以子串形式出现的全部词条（不区分大小写），按词表顺序、去重
func Match(text string) []string {
	if text == "" {
		return []string{}
	}
	lower := strings.ToLower(text)
	found := make([]string, 0, 8)
	for _, term := range vocabulary {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// Display 技能的展示形式，例如 "machine learning" -> "Machine Learning"
func Display(skill string) string {
	return titleCaser.String(skill)
}

// DisplayAll 批量转换为展示形式
func DisplayAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = Display(s)
	}
	return out
}
