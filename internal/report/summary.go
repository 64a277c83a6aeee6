// Package report 汇总岗位下的申请并生成报告。
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"recruit-agent-go/internal/constants"
	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/types"
)

// Summarize 汇总申请数据，纯函数
func Summarize(job *models.Job, applications []models.Application, modelName string, now time.Time) types.ReportSummary {
	summary := types.ReportSummary{
		TotalApplications: len(applications),
		GeneratedAt:       now.Format(time.RFC3339),
		TopCandidates:     []types.TopCandidate{},
	}
	if job != nil {
		summary.JobID = job.ID
		summary.JobTitle = job.JobTitle
	}

	scored := make([]int, 0, len(applications))
	parsed := 0
	skillCounts := make(map[string]int)
	skillOrder := make([]string, 0)

	for i := range applications {
		app := &applications[i]
		switch types.ApplicationStatus(app.Status) {
		case types.StatusShortlisted:
			summary.StatusBreakdown.Shortlisted++
		case types.StatusFlagged:
			summary.StatusBreakdown.Flagged++
		case types.StatusRejected:
			summary.StatusBreakdown.Rejected++
		case types.StatusPending:
			summary.StatusBreakdown.Pending++
		}

		if app.AIScore != nil {
			scored = append(scored, i)
		}

		facts, ok := parsedFacts(app)
		if !ok {
			continue
		}
		parsed++
		for _, skill := range facts.Skills {
			if _, seen := skillCounts[skill]; !seen {
				skillOrder = append(skillOrder, skill)
			}
			skillCounts[skill]++
		}
	}

	summary.ScoreStatistics = scoreStatistics(applications, scored)
	summary.TopCandidates = topCandidates(applications, scored, constants.TopCandidatesLimit)
	summary.SkillsAnalysis = types.SkillsAnalysis{
		TopSkills:         topSkills(skillOrder, skillCounts, constants.TopSkillsLimit),
		TotalUniqueSkills: len(skillOrder),
	}
	summary.ProcessingNotes = types.ProcessingNotes{
		ParsingSuccess: fmt.Sprintf("%d/%d", parsed, len(applications)),
		AIModelUsed:    modelName,
	}
	return summary
}

// parsedFacts parsed_data 为空或为 null 时视为未解析
func parsedFacts(app *models.Application) (types.ResumeFacts, bool) {
	var facts types.ResumeFacts
	if len(app.ParsedData) == 0 || string(app.ParsedData) == "null" {
		return facts, false
	}
	if err := json.Unmarshal(app.ParsedData, &facts); err != nil {
		return facts, false
	}
	return facts, true
}

func scoreStatistics(applications []models.Application, scored []int) types.ScoreStatistics {
	stats := types.ScoreStatistics{Scored: len(scored)}
	if len(scored) == 0 {
		return stats
	}

	sum := 0
	stats.Max = math.MinInt
	stats.Min = math.MaxInt
	for _, i := range scored {
		s := *applications[i].AIScore
		sum += s
		if s > stats.Max {
			stats.Max = s
		}
		if s < stats.Min {
			stats.Min = s
		}
	}
	stats.Average = math.Round(float64(sum)/float64(len(scored))*100) / 100
	return stats
}

// topCandidates 按分数降序，同分保持原有顺序
func topCandidates(applications []models.Application, scored []int, limit int) []types.TopCandidate {
	order := make([]int, len(scored))
	copy(order, scored)
	sort.SliceStable(order, func(a, b int) bool {
		return *applications[order[a]].AIScore > *applications[order[b]].AIScore
	})
	if len(order) > limit {
		order = order[:limit]
	}

	out := make([]types.TopCandidate, 0, len(order))
	for _, i := range order {
		app := &applications[i]
		skills := []string{}
		if facts, ok := parsedFacts(app); ok && facts.Skills != nil {
			skills = facts.Skills
		}
		out = append(out, types.TopCandidate{
			Email:  app.ApplicantEmail,
			Score:  *app.AIScore,
			Status: types.ApplicationStatus(app.Status),
			Skills: skills,
		})
	}
	return out
}

// topSkills 按出现次数降序，同次数按首次出现顺序
func topSkills(order []string, counts map[string]int, limit int) []types.SkillCount {
	out := make([]types.SkillCount, 0, len(order))
	for _, skill := range order {
		out = append(out, types.SkillCount{Skill: skill, Count: counts[skill]})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Count > out[b].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
