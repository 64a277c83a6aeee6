package report

import (
	"fmt"
	"testing"
	"time"

	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var reportTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func app(email string, score *int, status types.ApplicationStatus, parsed string) models.Application {
	a := models.Application{ApplicantEmail: email, AIScore: score, Status: string(status)}
	if parsed != "" {
		a.ParsedData = datatypes.JSON(parsed)
	}
	return a
}

func TestSummarize_Empty(t *testing.T) {
	job := &models.Job{ID: "job-1", JobTitle: "Backend Engineer"}
	s := Summarize(job, nil, "basic", reportTime)

	assert.Equal(t, 0, s.TotalApplications)
	assert.Equal(t, types.ScoreStatistics{}, s.ScoreStatistics)
	assert.Empty(t, s.TopCandidates)
	assert.NotNil(t, s.TopCandidates)
	assert.Empty(t, s.SkillsAnalysis.TopSkills)
	assert.Equal(t, 0, s.SkillsAnalysis.TotalUniqueSkills)
	assert.Equal(t, "0/0", s.ProcessingNotes.ParsingSuccess)
	assert.Equal(t, "basic", s.ProcessingNotes.AIModelUsed)
	assert.Equal(t, "2025-03-01T12:00:00Z", s.GeneratedAt)
	assert.Equal(t, "job-1", s.JobID)
	assert.Equal(t, "Backend Engineer", s.JobTitle)
}

func TestSummarize_MixedApplications(t *testing.T) {
	apps := []models.Application{
		app("a@x.com", intPtr(90), types.StatusShortlisted, `{"skills":["python","docker"],"text_length":10,"text_preview":""}`),
		app("b@x.com", intPtr(90), types.StatusShortlisted, `{"skills":["python"],"text_length":5,"text_preview":""}`),
		app("c@x.com", intPtr(70), types.StatusFlagged, `{"skills":["sql","docker"],"text_length":5,"text_preview":""}`),
		app("d@x.com", intPtr(40), types.StatusRejected, ""),
		app("e@x.com", nil, types.StatusPending, ""),
	}

	s := Summarize(&models.Job{ID: "j"}, apps, "qwen-turbo", reportTime)

	assert.Equal(t, 5, s.TotalApplications)
	assert.Equal(t, types.StatusBreakdown{Shortlisted: 2, Flagged: 1, Rejected: 1, Pending: 1}, s.StatusBreakdown)
	assert.Equal(t, types.ScoreStatistics{Average: 72.5, Max: 90, Min: 40, Scored: 4}, s.ScoreStatistics)

	require.Len(t, s.TopCandidates, 4)
	emails := []string{}
	for _, c := range s.TopCandidates {
		emails = append(emails, c.Email)
	}
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}, emails, "同分保持原顺序")
	assert.Equal(t, []string{}, s.TopCandidates[3].Skills, "无解析数据时技能为空列表")
	assert.Equal(t, types.StatusRejected, s.TopCandidates[3].Status)

	assert.Equal(t, []types.SkillCount{
		{Skill: "python", Count: 2},
		{Skill: "docker", Count: 2},
		{Skill: "sql", Count: 1},
	}, s.SkillsAnalysis.TopSkills)
	assert.Equal(t, 3, s.SkillsAnalysis.TotalUniqueSkills)
	assert.Equal(t, "3/5", s.ProcessingNotes.ParsingSuccess)
}

func TestSummarize_AverageRounding(t *testing.T) {
	apps := []models.Application{
		app("a", intPtr(90), types.StatusShortlisted, ""),
		app("b", intPtr(60), types.StatusFlagged, ""),
		app("c", intPtr(50), types.StatusFlagged, ""),
	}
	s := Summarize(nil, apps, "basic", reportTime)
	assert.Equal(t, 66.67, s.ScoreStatistics.Average)
}

func TestSummarize_Limits(t *testing.T) {
	var apps []models.Application
	for i := 0; i < 12; i++ {
		parsed := fmt.Sprintf(`{"skills":["skill%02d"]}`, i)
		apps = append(apps, app(fmt.Sprintf("c%d@x.com", i), intPtr(50+i), types.StatusFlagged, parsed))
	}
	s := Summarize(nil, apps, "basic", reportTime)

	require.Len(t, s.TopCandidates, 5)
	assert.Equal(t, 61, s.TopCandidates[0].Score)
	assert.Equal(t, 57, s.TopCandidates[4].Score)

	require.Len(t, s.SkillsAnalysis.TopSkills, 10)
	assert.Equal(t, "skill00", s.SkillsAnalysis.TopSkills[0].Skill, "同频次按首次出现顺序")
	assert.Equal(t, 12, s.SkillsAnalysis.TotalUniqueSkills)
}

func TestSummarize_NullParsedDataNotCounted(t *testing.T) {
	apps := []models.Application{app("a", nil, types.StatusPending, "null")}
	s := Summarize(nil, apps, "basic", reportTime)
	assert.Equal(t, "0/1", s.ProcessingNotes.ParsingSuccess)
}

func TestRenderText(t *testing.T) {
	apps := []models.Application{
		app("a@x.com", intPtr(90), types.StatusShortlisted, `{"skills":["machine learning","python"]}`),
	}
	text := RenderText(Summarize(&models.Job{JobTitle: "ML Engineer"}, apps, "basic", reportTime))

	assert.Contains(t, text, "Job Title: ML Engineer")
	assert.Contains(t, text, "Generated: 2025-03-01 12:00:00")
	assert.Contains(t, text, "- Total Applications: 1")
	assert.Contains(t, text, "- Average Score: 90.00/100")
	assert.Contains(t, text, "- a@x.com (Score: 90/100, shortlisted) - Machine Learning, Python")
	assert.Contains(t, text, "- Machine Learning: 1 applicants")
	assert.Contains(t, text, "Parsed resumes: 1/1")
}

func TestRenderText_NoCandidates(t *testing.T) {
	text := RenderText(Summarize(&models.Job{JobTitle: "X"}, nil, "basic", reportTime))
	assert.Contains(t, text, "TOP CANDIDATES:\n- none\n")
}
