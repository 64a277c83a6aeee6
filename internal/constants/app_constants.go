package constants

import "time"

const (
	// 报告与日志中展示的基础评分方式
	BasicScoringModel = "basic"

	// 单个申请处理的超时时间
	DefaultProcessingTimeout = 300 * time.Second

	// 公司API Key缓存时间
	CompanyCacheDuration = 10 * time.Minute

	// 报告中Top候选人与Top技能的数量
	TopCandidatesLimit = 5
	TopSkillsLimit     = 10
)
