// Package scoring 按岗位要求对简历事实打分并给出状态。
package scoring

import (
	"fmt"
	"math"
	"strings"

	"recruit-agent-go/internal/skills"
	"recruit-agent-go/internal/types"
)

const (
	baseScore        = 50.0
	maxSkillBonus    = 40.0
	skillBonusWeight = 0.4

	shortlistThreshold = 75
	flagThreshold      = 50
)

// Score 基础关键词评分，不会失败。facts 为 nil 时按空记录处理
func Score(requirements string, facts *types.ResumeFacts) types.ScoringResult {
	var candidateSkills []string
	textLength := 0
	if facts != nil {
		candidateSkills = facts.Skills
		textLength = facts.TextLength
	}

	required := skills.Match(requirements)
	matches := countMatches(required, candidateSkills)

	score := baseScore
	if len(required) > 0 {
		matchPercentage := float64(matches) / float64(len(required)) * 100
		score += math.Min(matchPercentage*skillBonusWeight, maxSkillBonus)
	}

	// 文本长度作为经历详实程度的近似
	switch {
	case textLength > 2000:
		score += 10
	case textLength > 1000:
		score += 5
	}

	final := int(math.Max(0, math.Min(100, score)))
	return types.ScoringResult{
		Score:               final,
		Status:              StatusFor(final),
		Feedback:            fmt.Sprintf("Matched %d out of %d key skills", matches, len(required)),
		MatchedSkills:       matches,
		TotalRequiredSkills: len(required),
	}
}

// StatusFor 由分数决定状态，区间下界包含在内
func StatusFor(score int) types.ApplicationStatus {
	switch {
	case score >= shortlistThreshold:
		return types.StatusShortlisted
	case score >= flagThreshold:
		return types.StatusFlagged
	default:
		return types.StatusRejected
	}
}

// countMatches 统计被某个候选人技能包含的关键词数量。
// 方向是关键词出现在技能中，而不是技能出现在关键词中。
func countMatches(required, candidateSkills []string) int {
	matches := 0
	for _, keyword := range required {
		kw := strings.ToLower(keyword)
		for _, skill := range candidateSkills {
			if strings.Contains(strings.ToLower(skill), kw) {
				matches++
				break
			}
		}
	}
	return matches
}
