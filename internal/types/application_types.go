package types

// ApplicationStatus 申请状态
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusFlagged     ApplicationStatus = "flagged"
	StatusRejected    ApplicationStatus = "rejected"
)

// IsTerminal 是否为处理完成后的终态
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusShortlisted || s == StatusFlagged || s == StatusRejected
}

// Valid 状态值是否合法
func (s ApplicationStatus) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// ApplicationSource 申请来源渠道
type ApplicationSource string

const (
	SourceUpload      ApplicationSource = "upload"
	SourceEmail       ApplicationSource = "email"
	SourceN8N         ApplicationSource = "n8n"
	SourceEmailParser ApplicationSource = "email_parser"
)

// ResumeFacts 从简历文本中抽取的结构化信息，对应 applications.parsed_data
type ResumeFacts struct {
	Email       *string  `json:"email"`
	Skills      []string `json:"skills"`
	TextLength  int      `json:"text_length"`
	TextPreview string   `json:"text_preview"`

	// 以下字段仅在 webhook 来源时出现
	Source      string `json:"source,omitempty"`
	Subject     string `json:"subject,omitempty"`
	BodyPreview string `json:"body_preview,omitempty"`
}

// ScoringResult 一次评分的结果
type ScoringResult struct {
	Score               int               `json:"score"`
	Status              ApplicationStatus `json:"status"`
	Feedback            string            `json:"feedback"`
	MatchedSkills       int               `json:"matched_skills"`
	TotalRequiredSkills int               `json:"total_required_skills"`
}

// TopCandidate 报告中的候选人条目
type TopCandidate struct {
	Email  string            `json:"email"`
	Score  int               `json:"score"`
	Status ApplicationStatus `json:"status"`
	Skills []string          `json:"skills"`
}

// SkillCount 技能频次
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// StatusBreakdown 按状态统计
type StatusBreakdown struct {
	Shortlisted int `json:"shortlisted"`
	Flagged     int `json:"flagged"`
	Rejected    int `json:"rejected"`
	Pending     int `json:"pending"`
}

// ScoreStatistics 分数统计，仅统计已评分的申请
type ScoreStatistics struct {
	Average float64 `json:"average_score"`
	Max     int     `json:"max_score"`
	Min     int     `json:"min_score"`
	Scored  int     `json:"scored_applications"`
}

// SkillsAnalysis 技能分析
type SkillsAnalysis struct {
	TopSkills         []SkillCount `json:"top_skills"`
	TotalUniqueSkills int          `json:"total_unique_skills"`
}

// ProcessingNotes 处理说明
type ProcessingNotes struct {
	ParsingSuccess string `json:"parsing_success"`
	AIModelUsed    string `json:"ai_model_used"`
}

// ReportSummary 岗位申请汇总报告
type ReportSummary struct {
	JobID             string          `json:"job_id"`
	JobTitle          string          `json:"job_title"`
	GeneratedAt       string          `json:"generated_at"`
	TotalApplications int             `json:"total_applications"`
	StatusBreakdown   StatusBreakdown `json:"status_breakdown"`
	ScoreStatistics   ScoreStatistics `json:"score_statistics"`
	TopCandidates     []TopCandidate  `json:"top_candidates"`
	SkillsAnalysis    SkillsAnalysis  `json:"skills_analysis"`
	ProcessingNotes   ProcessingNotes `json:"processing_notes"`
}
