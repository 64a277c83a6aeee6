package handler

import (
	"context"

	"recruit-agent-go/internal/api/middleware"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ReportResponse 报告详情，归档在对象存储时附带临时下载链接
type ReportResponse struct {
	*models.Report
	DownloadURL string `json:"download_url,omitempty"`
}

// GenerateReport POST /api/v1/jobs/:job_id/reports
func (h *Handler) GenerateReport(ctx context.Context, c *app.RequestContext) {
	report, err := h.reports.Generate(ctx, middleware.CompanyID(c), c.Param("job_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, h.reportResponse(ctx, report))
}

// ListReports GET /api/v1/jobs/:job_id/reports
func (h *Handler) ListReports(ctx context.Context, c *app.RequestContext) {
	job, err := h.ownedJob(ctx, c, c.Param("job_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	reports, err := h.store.ListReportsByJob(ctx, job.ID)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"reports": reports, "total": len(reports)})
}

// GetReport GET /api/v1/reports/:report_id
func (h *Handler) GetReport(ctx context.Context, c *app.RequestContext) {
	report, err := h.store.GetReport(ctx, c.Param("report_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if _, err := h.ownedJob(ctx, c, report.JobID); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, h.reportResponse(ctx, report))
}

func (h *Handler) reportResponse(ctx context.Context, report *models.Report) ReportResponse {
	resp := ReportResponse{Report: report}
	if h.linker == nil || report.FileURL == "" {
		return resp
	}
	url, err := h.linker.ReportDownloadURL(ctx, report.FileURL, h.opts.ReportLinkExpiry)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("report_id", report.ID).Msg("生成报告下载链接失败")
		return resp
	}
	resp.DownloadURL = url
	return resp
}
