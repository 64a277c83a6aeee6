package report

import (
	"fmt"
	"strings"
	"time"

	"recruit-agent-go/internal/skills"
	"recruit-agent-go/internal/types"
)

// renderedSkills 文本报告中展示的技能数量
const renderedSkills = 5

// RenderText 生成纯文本报告，归档到对象存储
func RenderText(summary types.ReportSummary) string {
	var sb strings.Builder

	sb.WriteString("RECRUITMENT REPORT\n")
	sb.WriteString("==================\n\n")
	fmt.Fprintf(&sb, "Job Title: %s\n", summary.JobTitle)
	fmt.Fprintf(&sb, "Generated: %s\n\n", displayTime(summary.GeneratedAt))

	sb.WriteString("SUMMARY STATISTICS:\n")
	fmt.Fprintf(&sb, "- Total Applications: %d\n", summary.TotalApplications)
	fmt.Fprintf(&sb, "- Shortlisted: %d\n", summary.StatusBreakdown.Shortlisted)
	fmt.Fprintf(&sb, "- Flagged for Review: %d\n", summary.StatusBreakdown.Flagged)
	fmt.Fprintf(&sb, "- Rejected: %d\n", summary.StatusBreakdown.Rejected)
	fmt.Fprintf(&sb, "- Pending: %d\n", summary.StatusBreakdown.Pending)
	fmt.Fprintf(&sb, "- Average Score: %.2f/100\n\n", summary.ScoreStatistics.Average)

	sb.WriteString("TOP CANDIDATES:\n")
	if len(summary.TopCandidates) == 0 {
		sb.WriteString("- none\n")
	}
	for _, c := range summary.TopCandidates {
		fmt.Fprintf(&sb, "- %s (Score: %d/100, %s)", c.Email, c.Score, c.Status)
		if len(c.Skills) > 0 {
			fmt.Fprintf(&sb, " - %s", strings.Join(skills.DisplayAll(c.Skills), ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nSKILLS ANALYSIS:\n")
	sb.WriteString("Top skills found in applications:\n")
	top := summary.SkillsAnalysis.TopSkills
	if len(top) > renderedSkills {
		top = top[:renderedSkills]
	}
	for _, s := range top {
		fmt.Fprintf(&sb, "- %s: %d applicants\n", skills.Display(s.Skill), s.Count)
	}
	fmt.Fprintf(&sb, "Unique skills: %d\n\n", summary.SkillsAnalysis.TotalUniqueSkills)

	fmt.Fprintf(&sb, "Parsed resumes: %s\n", summary.ProcessingNotes.ParsingSuccess)
	fmt.Fprintf(&sb, "Scoring: %s\n", summary.ProcessingNotes.AIModelUsed)
	return sb.String()
}

func displayTime(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return rfc3339
	}
	return t.Format("2006-01-02 15:04:05")
}
