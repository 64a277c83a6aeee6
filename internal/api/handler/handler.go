package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recruit-agent-go/internal/api/middleware"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/report"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ErrForbidden 资源不属于当前公司
var ErrForbidden = errors.New("resource does not belong to company")

// Store 处理器所需的持久化操作，由 storage.MySQL 实现
type Store interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, companyID string) (*models.Company, error)

	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobsByCompany(ctx context.Context, companyID string) ([]models.Job, error)
	CreateJob(ctx context.Context, job *models.Job) error
	UpdateJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, jobID string) error

	GetApplication(ctx context.Context, applicationID string) (*models.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID string, status string) ([]models.Application, error)
	CreateApplicationWithOutbox(ctx context.Context, app *models.Application, msg *models.OutboxMessage) error

	ListReportsByJob(ctx context.Context, jobID string) ([]models.Report, error)
	GetReport(ctx context.Context, reportID string) (*models.Report, error)
}

// ReportGenerator 报告生成，由 report.Service 实现
type ReportGenerator interface {
	Generate(ctx context.Context, companyID, jobID string) (*models.Report, error)
}

// ReportLinker 报告下载链接，由 storage.MinIO 实现
type ReportLinker interface {
	ReportDownloadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Options 处理器的配置项
type Options struct {
	// 申请事件投递的交换机与路由键
	Exchange   string
	RoutingKey string
	// 上传简历的最大字节数
	MaxUploadBytes int64
	// 报告下载链接有效期
	ReportLinkExpiry time.Duration
}

// Handler 聚合所有 HTTP 接口
type Handler struct {
	store   Store
	files   storage.FileStore
	reports ReportGenerator
	linker  ReportLinker
	opts    Options
	now     func() time.Time
}

// NewHandler linker 可以为 nil，此时报告详情不返回下载链接
func NewHandler(store Store, files storage.FileStore, reports ReportGenerator, linker ReportLinker, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.ReportLinkExpiry <= 0 {
		opts.ReportLinkExpiry = time.Hour
	}
	return &Handler{
		store:   store,
		files:   files,
		reports: reports,
		linker:  linker,
		opts:    opts,
		now:     time.Now,
	}
}

// Health GET /api/v1/health
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// validationError 请求参数错误，映射为 400
type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func badRequest(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// writeError 将错误映射为 HTTP 状态码
func writeError(ctx context.Context, c *app.RequestContext, err error) {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		c.JSON(consts.StatusBadRequest, utils.H{"error": ve.msg})
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, report.ErrJobNotFound):
		c.JSON(consts.StatusNotFound, utils.H{"error": "资源不存在"})
	case errors.Is(err, ErrForbidden), errors.Is(err, report.ErrForbidden):
		c.JSON(consts.StatusForbidden, utils.H{"error": "无权访问该资源"})
	case errors.Is(err, storage.ErrDuplicate):
		c.JSON(consts.StatusConflict, utils.H{"error": "资源已存在"})
	default:
		logger.Ctx(ctx).Error().Err(err).Str("path", string(c.Path())).Msg("请求处理失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "服务器内部错误"})
	}
}

// decodeJSON 解析请求体
func decodeJSON(c *app.RequestContext, v interface{}) error {
	body := c.Request.Body()
	if len(body) == 0 {
		return badRequest("请求体不能为空")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest("请求体不是合法的JSON: %v", err)
	}
	return nil
}

// ownedJob 读取岗位并校验是否属于当前公司
func (h *Handler) ownedJob(ctx context.Context, c *app.RequestContext, jobID string) (*models.Job, error) {
	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.CompanyID != middleware.CompanyID(c) {
		return nil, ErrForbidden
	}
	return job, nil
}
