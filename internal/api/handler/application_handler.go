package handler

import (
	"context"

	"recruit-agent-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ListApplications GET /api/v1/jobs/:job_id/applications?status=
func (h *Handler) ListApplications(ctx context.Context, c *app.RequestContext) {
	job, err := h.ownedJob(ctx, c, c.Param("job_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	status := c.Query("status")
	if status != "" && !types.ApplicationStatus(status).Valid() {
		writeError(ctx, c, badRequest("未知的状态: %s", status))
		return
	}

	apps, err := h.store.ListApplicationsByJob(ctx, job.ID, status)
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"applications": apps, "total": len(apps)})
}

// GetApplication GET /api/v1/applications/:application_id
func (h *Handler) GetApplication(ctx context.Context, c *app.RequestContext) {
	application, err := h.store.GetApplication(ctx, c.Param("application_id"))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	if _, err := h.ownedJob(ctx, c, application.JobID); err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, application)
}
