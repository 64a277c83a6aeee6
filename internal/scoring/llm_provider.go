package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recruit-agent-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	strongMatchScore = 80
	lowConfidence    = 30

	maxAssessmentRunes = 200
	reviewPrompt       = `You are a recruiting assistant. Given job requirements and facts extracted from a resume, reply with ONE short sentence assessing the fit. Do not give a number.`
)

// Generator 生成一条回复，eino 的 ChatModel 均满足该接口
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// LLMProvider 在基础评分之上附加LLM的一句话点评，不改变分数与状态
type LLMProvider struct {
	model     Generator
	modelName string
	timeout   time.Duration
}

var _ Provider = (*LLMProvider)(nil)

// NewLLMProvider model 为 nil 时 provider 不可用
func NewLLMProvider(m Generator, modelName string, timeout time.Duration) *LLMProvider {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLMProvider{model: m, modelName: modelName, timeout: timeout}
}

func (p *LLMProvider) Name() string {
	return p.modelName
}

func (p *LLMProvider) Available() bool {
	return p.model != nil
}

// Score 先做基础评分，再请求LLM点评并追加到反馈中
func (p *LLMProvider) Score(ctx context.Context, requirements string, facts *types.ResumeFacts) (types.ScoringResult, error) {
	result := Score(requirements, facts)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(reviewPrompt),
		schema.UserMessage(buildReviewInput(requirements, facts, result)),
	}, model.WithTemperature(0.2), model.WithMaxTokens(80))
	if err != nil {
		return types.ScoringResult{}, fmt.Errorf("LLM点评失败: %w", err)
	}

	if resp == nil {
		return types.ScoringResult{}, fmt.Errorf("LLM未返回消息")
	}

	assessment := firstSentence(resp.Content)
	if assessment == "" {
		return types.ScoringResult{}, fmt.Errorf("LLM返回空内容")
	}

	result.Feedback += " | AI: " + assessment
	switch {
	case result.Score > strongMatchScore:
		result.Feedback += " | Strong AI match"
	case result.Score < lowConfidence:
		result.Feedback += " | Low AI confidence"
	}
	return result, nil
}

func buildReviewInput(requirements string, facts *types.ResumeFacts, basic types.ScoringResult) string {
	var sb strings.Builder
	sb.WriteString("Job requirements:\n")
	sb.WriteString(requirements)
	sb.WriteString("\n\nCandidate skills: ")
	if facts != nil && len(facts.Skills) > 0 {
		sb.WriteString(strings.Join(facts.Skills, ", "))
	} else {
		sb.WriteString("(none detected)")
	}
	if facts != nil && facts.TextPreview != "" {
		sb.WriteString("\nResume excerpt:\n")
		sb.WriteString(facts.TextPreview)
	}
	fmt.Fprintf(&sb, "\n\nKeyword score: %d/100 (%s)", basic.Score, basic.Feedback)
	return sb.String()
}

// firstSentence 取回复的第一行并限制长度，去掉其中的分隔符
func firstSentence(content string) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.ReplaceAll(line, "|", "/")
	runes := []rune(line)
	if len(runes) > maxAssessmentRunes {
		line = string(runes[:maxAssessmentRunes]) + "..."
	}
	return line
}
