package handler

import (
	"context"
	"strings"
	"time"

	"recruit-agent-go/internal/api/middleware"
	"recruit-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// JobRequest 创建或更新岗位的请求体；更新时未提供的字段保持原值
type JobRequest struct {
	JobTitle         string     `json:"job_title"`
	JobDescription   string     `json:"job_description"`
	Requirements     string     `json:"requirements"`
	ApplicationMode  string     `json:"application_mode"`
	ApplicationEmail string     `json:"application_email"`
	ReportEmails     []string   `json:"report_emails"`
	Deadline         time.Time  `json:"deadline"`
	InterviewTime    *time.Time `json:"interview_time"`
	InterviewLink    string     `json:"interview_link"`
	Status           string     `json:"status"`
}

func requestFromJob(job *models.Job) JobRequest {
	return JobRequest{
		JobTitle:         job.JobTitle,
		JobDescription:   job.JobDescription,
		Requirements:     job.Requirements,
		ApplicationMode:  job.ApplicationMode,
		ApplicationEmail: job.ApplicationEmail,
		ReportEmails:     models.StringList(job.ReportEmails),
		Deadline:         job.Deadline,
		InterviewTime:    job.InterviewTime,
		InterviewLink:    job.InterviewLink,
		Status:           job.Status,
	}
}

func (r *JobRequest) validate() error {
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	r.Requirements = strings.TrimSpace(r.Requirements)
	if r.JobTitle == "" {
		return badRequest("job_title 不能为空")
	}
	if r.Requirements == "" {
		return badRequest("requirements 不能为空")
	}
	if r.Deadline.IsZero() {
		return badRequest("deadline 不能为空")
	}

	if r.ApplicationMode == "" {
		r.ApplicationMode = models.ApplicationModeLink
	}
	switch r.ApplicationMode {
	case models.ApplicationModeLink:
	case models.ApplicationModeEmail:
		if _, err := normalizeEmail(r.ApplicationEmail); err != nil {
			return badRequest("邮件申请模式需要合法的 application_email")
		}
	default:
		return badRequest("application_mode 只能是 email 或 link")
	}

	if r.Status == "" {
		r.Status = models.JobStatusActive
	}
	switch r.Status {
	case models.JobStatusActive, models.JobStatusExpired, models.JobStatusClosed:
	default:
		return badRequest("status 只能是 active、expired 或 closed")
	}

	emails := make([]string, 0, len(r.ReportEmails))
	for _, e := range r.ReportEmails {
		addr, err := normalizeEmail(e)
		if err != nil {
			return badRequest("report_emails 中有非法邮箱: %s", e)
		}
		emails = append(emails, addr)
	}
	r.ReportEmails = emails
	return nil
}

func (r *JobRequest) apply(job *models.Job) {
	job.JobTitle = r.JobTitle
	job.JobDescription = r.JobDescription
	job.Requirements = r.Requirements
	job.ApplicationMode = r.ApplicationMode
	job.ApplicationEmail = r.ApplicationEmail
	job.ReportEmails = models.JSONList(r.ReportEmails)
	job.Deadline = r.Deadline
	job.InterviewTime = r.InterviewTime
	job.InterviewLink = r.InterviewLink
	job.Status = r.Status
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(ctx context.Context, c *app.RequestContext) {
	jobs, err := h.store.ListJobsByCompany(ctx, middleware.CompanyID(c))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"jobs": jobs, "total": len(jobs)})
}

// CreateJob POST /api/v1/jobs
func (h *Handler) CreateJob(ctx context.Context, c *app.RequestContext) {
	var req JobRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(ctx, c, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(ctx, c, err)
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	now := h.now()
	job := &models.Job{
		ID:        id.String(),
		CompanyID: middleware.CompanyID(c),
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(job)

	if err := h.store.CreateJob(ctx, job); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, job)
}

// GetJob GET /api/v1/jobs/:job_id
func (h *Handler) GetJob(ctx context.Context, c *app.RequestContext) {
	job, err := h.ownedJob(ctx, c, c.Param("job_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, job)
}

// UpdateJob PUT /api/v1/jobs/:job_id
func (h *Handler) UpdateJob(ctx context.Context, c *app.RequestContext) {
	job, err := h.ownedJob(ctx, c, c.Param("job_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	req := requestFromJob(job)
	if err := decodeJSON(c, &req); err != nil {
		writeError(ctx, c, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(ctx, c, err)
		return
	}
	req.apply(job)
	job.UpdatedAt = h.now()

	if err := h.store.UpdateJob(ctx, job); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, job)
}

// DeleteJob DELETE /api/v1/jobs/:job_id，同时删除岗位下的申请与报告
func (h *Handler) DeleteJob(ctx context.Context, c *app.RequestContext) {
	job, err := h.ownedJob(ctx, c, c.Param("job_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if err := h.store.DeleteJob(ctx, job.ID); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": "岗位已删除", "job_id": job.ID})
}
