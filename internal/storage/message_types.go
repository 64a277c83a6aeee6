package storage

import "time"

// 申请相关的事件类型
const (
	EventApplicationSubmitted = "application.submitted"
)

// ApplicationSubmittedMessage 申请提交后投递给处理队列的消息
type ApplicationSubmittedMessage struct {
	ApplicationID string    `json:"application_id"`
	JobID         string    `json:"job_id"`
	Source        string    `json:"source,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
	// 重新评分时为 true
	Rescore bool `json:"rescore,omitempty"`
}
