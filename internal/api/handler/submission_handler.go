package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/parser"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"
	"recruit-agent-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// bodyPreviewLimit 邮件正文预览保留的字符数
const bodyPreviewLimit = 200

// SubmissionResponse 申请提交响应
type SubmissionResponse struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
	ResumeStored  bool   `json:"resume_stored"`
}

// submission 各渠道共用的提交参数
type submission struct {
	job      *models.Job
	email    string
	source   types.ApplicationSource
	resume   []byte
	kind     parser.Kind
	resumeAt string // 已存储的简历引用，邮件轮询渠道使用
	meta     *submissionMeta
}

// submissionMeta webhook 渠道写入 parsed_data 的元信息
type submissionMeta struct {
	Source      string `json:"source,omitempty"`
	Subject     string `json:"subject,omitempty"`
	BodyPreview string `json:"body_preview,omitempty"`
}

// Apply POST /api/v1/jobs/:job_id/apply
// multipart 表单：applicant_email + resume
func (h *Handler) Apply(ctx context.Context, c *app.RequestContext) {
	job, err := h.store.GetJob(ctx, c.Param("job_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if job.Status != models.JobStatusActive {
		writeError(ctx, c, storage.ErrNotFound)
		return
	}
	if !h.now().Before(job.Deadline) {
		writeError(ctx, c, badRequest("申请截止时间已过"))
		return
	}
	if job.ApplicationMode != models.ApplicationModeLink {
		writeError(ctx, c, badRequest("该岗位仅接受邮件申请"))
		return
	}

	email, err := normalizeEmail(c.PostForm("applicant_email"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		writeError(ctx, c, badRequest("缺少简历文件"))
		return
	}
	if fileHeader.Size > h.opts.MaxUploadBytes {
		writeError(ctx, c, badRequest("简历文件超过 %d 字节", h.opts.MaxUploadBytes))
		return
	}
	kind := parser.KindFromContentType(fileHeader.Header.Get("Content-Type"))
	if !kind.Supported() {
		kind = parser.KindFromFilename(fileHeader.Filename)
	}
	if !kind.Supported() {
		writeError(ctx, c, badRequest("不支持的文件类型，仅支持 PDF、DOC、DOCX、TXT"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(ctx, c, fmt.Errorf("打开上传文件失败: %w", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUploadBytes+1))
	if err != nil {
		writeError(ctx, c, fmt.Errorf("读取上传文件失败: %w", err))
		return
	}

	resp, err := h.submit(ctx, submission{
		job:    job,
		email:  email,
		source: types.SourceUpload,
		resume: data,
		kind:   kind,
	})
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, resp)
}

// EmailHookRequest 邮件轮询程序提交的申请，简历已存入对象存储
type EmailHookRequest struct {
	JobID          string `json:"job_id"`
	ApplicantEmail string `json:"applicant_email"`
	ResumeObject   string `json:"resume_object,omitempty"`
}

// EmailHook POST /api/v1/applications/email-hook
func (h *Handler) EmailHook(ctx context.Context, c *app.RequestContext) {
	var req EmailHookRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(ctx, c, err)
		return
	}
	email, err := normalizeEmail(req.ApplicantEmail)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	job, err := h.store.GetJob(ctx, req.JobID)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	resp, err := h.submit(ctx, submission{
		job:      job,
		email:    email,
		source:   types.SourceEmail,
		resumeAt: strings.TrimSpace(req.ResumeObject),
	})
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, resp)
}

// N8NWebhookRequest n8n 自动化流程提交的申请
type N8NWebhookRequest struct {
	JobID          string            `json:"job_id"`
	ApplicantEmail string            `json:"applicant_email"`
	ResumeContent  string            `json:"resume_content,omitempty"` // base64
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// N8NWebhook POST /api/v1/webhooks/n8n
func (h *Handler) N8NWebhook(ctx context.Context, c *app.RequestContext) {
	var req N8NWebhookRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(ctx, c, err)
		return
	}
	email, err := normalizeEmail(req.ApplicantEmail)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	job, err := h.store.GetJob(ctx, req.JobID)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	sub := submission{
		job:    job,
		email:  email,
		source: types.SourceN8N,
		meta:   &submissionMeta{Source: string(types.SourceN8N)},
	}
	if req.ResumeContent != "" {
		filename := req.Metadata["filename"]
		if filename == "" {
			ext := strings.TrimPrefix(req.Metadata["file_type"], ".")
			if ext == "" {
				ext = "pdf"
			}
			filename = "resume." + ext
		}
		sub.resume, sub.kind = h.decodeAttachment(ctx, filename, req.ResumeContent)
	}

	resp, err := h.submit(ctx, sub)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, resp)
}

// EmailAttachment 邮件附件
type EmailAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content,omitempty"` // base64
}

// EmailParserRequest 邮件解析服务提交的邮件
type EmailParserRequest struct {
	JobID       string            `json:"job_id"`
	From        string            `json:"from"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
}

// EmailParserWebhook POST /api/v1/webhooks/email-parser
// 使用第一个扩展名为 pdf/doc/docx/txt 且内容可解码的附件作为简历
func (h *Handler) EmailParserWebhook(ctx context.Context, c *app.RequestContext) {
	var req EmailParserRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(ctx, c, err)
		return
	}
	email, err := normalizeEmail(req.From)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	job, err := h.store.GetJob(ctx, req.JobID)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	sub := submission{
		job:    job,
		email:  email,
		source: types.SourceEmailParser,
		meta: &submissionMeta{
			Source:      string(types.SourceEmailParser),
			Subject:     req.Subject,
			BodyPreview: parser.Preview(req.Body, bodyPreviewLimit),
		},
	}
	for _, att := range req.Attachments {
		if !parser.KindFromFilename(att.Filename).Supported() || att.Content == "" {
			continue
		}
		data, kind := h.decodeAttachment(ctx, att.Filename, att.Content)
		if data != nil {
			sub.resume, sub.kind = data, kind
			break
		}
	}

	resp, err := h.submit(ctx, sub)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, resp)
}

// decodeAttachment 解码 base64 附件，失败或类型不支持时返回 nil，申请按无简历处理
func (h *Handler) decodeAttachment(ctx context.Context, filename, content string) ([]byte, parser.Kind) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("filename", filename).Msg("附件不是合法的base64，忽略")
		return nil, parser.KindUnsupported
	}
	if int64(len(data)) > h.opts.MaxUploadBytes {
		logger.Ctx(ctx).Warn().Str("filename", filename).Int("size", len(data)).Msg("附件过大，忽略")
		return nil, parser.KindUnsupported
	}
	kind := parser.DetectKind(data, filename)
	if !kind.Supported() {
		kind = parser.KindFromFilename(filename)
	}
	if !kind.Supported() {
		logger.Ctx(ctx).Warn().Str("filename", filename).Msg("附件类型不受支持，忽略")
		return nil, parser.KindUnsupported
	}
	return data, kind
}

// submit 保存简历，并在同一事务中写入申请与待投递事件
func (h *Handler) submit(ctx context.Context, sub submission) (*SubmissionResponse, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成申请ID失败: %w", err)
	}
	applicationID := id.String()

	resumeRef := sub.resumeAt
	if sub.resume != nil {
		resumeRef, err = h.files.SaveResume(ctx, applicationID, sub.kind.Extension(), sub.resume, sub.kind.ContentType())
		if err != nil {
			return nil, fmt.Errorf("保存简历失败: %w", err)
		}
	}

	now := h.now()
	application := &models.Application{
		ID:             applicationID,
		JobID:          sub.job.ID,
		ApplicantEmail: sub.email,
		ResumeFile:     resumeRef,
		Source:         string(sub.source),
		Status:         string(types.StatusPending),
		SubmittedAt:    now,
	}
	if sub.meta != nil {
		data, err := json.Marshal(sub.meta)
		if err != nil {
			return nil, fmt.Errorf("序列化提交元信息失败: %w", err)
		}
		application.ParsedData = data
	}

	payload, err := json.Marshal(storage.ApplicationSubmittedMessage{
		ApplicationID: applicationID,
		JobID:         sub.job.ID,
		Source:        string(sub.source),
		SubmittedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化申请事件失败: %w", err)
	}
	msg := &models.OutboxMessage{
		AggregateID:      applicationID,
		EventType:        storage.EventApplicationSubmitted,
		Payload:          string(payload),
		TargetExchange:   h.opts.Exchange,
		TargetRoutingKey: h.opts.RoutingKey,
		Status:           models.OutboxStatusPending,
	}

	if err := h.store.CreateApplicationWithOutbox(ctx, application, msg); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("application_id", applicationID).
		Str("job_id", sub.job.ID).
		Str("source", string(sub.source)).
		Bool("resume", resumeRef != "").
		Msg("申请已提交")

	return &SubmissionResponse{
		ApplicationID: applicationID,
		Status:        string(types.StatusPending),
		ResumeStored:  resumeRef != "",
	}, nil
}

// normalizeEmail 校验并规范化邮箱，支持 "Name <addr>" 形式
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", badRequest("applicant_email 不能为空")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", badRequest("邮箱格式不正确: %s", raw)
	}
	return strings.ToLower(addr.Address), nil
}
