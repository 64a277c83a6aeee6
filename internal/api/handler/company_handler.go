package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"recruit-agent-go/internal/api/middleware"
	"recruit-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

const apiKeyPrefix = "rk_"

// RegisterCompanyRequest 公司注册请求体
type RegisterCompanyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CompanyResponse API Key 只在注册时返回一次
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	APIKey    string    `json:"api_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func companyResponse(c *models.Company) CompanyResponse {
	return CompanyResponse{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
}

// newAPIKey 32字节随机数的十六进制形式
func newAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// RegisterCompany POST /api/v1/companies
func (h *Handler) RegisterCompany(ctx context.Context, c *app.RequestContext) {
	var req RegisterCompanyRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(ctx, c, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(ctx, c, badRequest("name 不能为空"))
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(ctx, c, badRequest("email 不能为空"))
		return
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		writeError(ctx, c, err)
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	key, err := newAPIKey()
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	company := &models.Company{
		ID:        id.String(),
		Name:      req.Name,
		Email:     email,
		APIKey:    key,
		CreatedAt: h.now(),
	}
	if err := h.store.CreateCompany(ctx, company); err != nil {
		writeError(ctx, c, err)
		return
	}

	resp := companyResponse(company)
	resp.APIKey = key
	c.JSON(consts.StatusCreated, resp)
}

// Me GET /api/v1/me
func (h *Handler) Me(ctx context.Context, c *app.RequestContext) {
	company, err := h.store.GetCompany(ctx, middleware.CompanyID(c))
	if err != nil {
		writeError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, companyResponse(company))
}
