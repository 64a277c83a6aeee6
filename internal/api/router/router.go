package router

import (
	"recruit-agent-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
)

// RegisterRoutes 注册 API 路由，auth 为公司 API Key 认证中间件
func RegisterRoutes(h *server.Hertz, hd *handler.Handler, auth app.HandlerFunc) {
	api := h.Group("/api/v1")

	// 公开接口：健康检查、公司注册与各渠道的申请提交
	api.GET("/health", hd.Health)
	api.POST("/companies", hd.RegisterCompany)
	api.POST("/jobs/:job_id/apply", hd.Apply)
	api.POST("/applications/email-hook", hd.EmailHook)
	api.POST("/webhooks/n8n", hd.N8NWebhook)
	api.POST("/webhooks/email-parser", hd.EmailParserWebhook)

	company := api.Group("", auth)
	company.GET("/me", hd.Me)
	company.GET("/jobs", hd.ListJobs)
	company.POST("/jobs", hd.CreateJob)
	company.GET("/jobs/:job_id", hd.GetJob)
	company.PUT("/jobs/:job_id", hd.UpdateJob)
	company.DELETE("/jobs/:job_id", hd.DeleteJob)
	company.GET("/jobs/:job_id/applications", hd.ListApplications)
	company.POST("/jobs/:job_id/reports", hd.GenerateReport)
	company.GET("/jobs/:job_id/reports", hd.ListReports)
	company.GET("/applications/:application_id", hd.GetApplication)
	company.GET("/reports/:report_id", hd.GetReport)
}
