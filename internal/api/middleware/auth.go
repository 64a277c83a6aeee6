package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recruit-agent-go/internal/constants"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// CompanyIDKey 认证通过后公司ID在请求上下文中的键
const CompanyIDKey = "company_id"

// ErrInvalidAPIKey API Key 无效
var ErrInvalidAPIKey = errors.New("invalid api key")

// CompanyStore 按 API Key 查询公司，由 storage.MySQL 实现
type CompanyStore interface {
	GetCompanyByAPIKey(ctx context.Context, apiKey string) (*models.Company, error)
}

// Cache 公司信息缓存，由 storage.Redis 实现
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
}

// CompanyResolver 带缓存的公司查询
type CompanyResolver struct {
	store CompanyStore
	cache Cache
}

// NewCompanyResolver cache 可以为 nil
func NewCompanyResolver(store CompanyStore, cache Cache) *CompanyResolver {
	return &CompanyResolver{store: store, cache: cache}
}

type cachedCompany struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolve 返回 API Key 对应的公司ID
func (r *CompanyResolver) Resolve(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrInvalidAPIKey
	}
	sum := sha256.Sum256([]byte(apiKey))
	cacheKey := storage.FormatKey(constants.KeyCompanyByAPIKey, hex.EncodeToString(sum[:]))

	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, cacheKey); err == nil {
			var c cachedCompany
			if json.Unmarshal([]byte(raw), &c) == nil && c.ID != "" {
				return c.ID, nil
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			logger.Ctx(ctx).Warn().Err(err).Msg("读取公司缓存失败，回退到数据库")
		}
	}

	company, err := r.store.GetCompanyByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidAPIKey
		}
		return "", fmt.Errorf("查询公司失败: %w", err)
	}

	if r.cache != nil {
		data, _ := json.Marshal(cachedCompany{ID: company.ID, Name: company.Name})
		if err := r.cache.Set(ctx, cacheKey, string(data), constants.CompanyCacheDuration); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("写入公司缓存失败")
		}
	}
	return company.ID, nil
}

// CompanyAuth 校验请求头中的 API Key，并把公司ID写入请求上下文
func CompanyAuth(resolver *CompanyResolver, header string) app.HandlerFunc {
	if header == "" {
		header = "X-API-Key"
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+header, ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			companyID, err := resolver.Resolve(ctx, key)
			if err != nil {
				return false, err
			}
			c.Set(CompanyIDKey, companyID)
			return true, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			if err != nil && !errors.Is(err, ErrInvalidAPIKey) && !errors.Is(err, keyauth.ErrMissingOrMalformedAPIKey) {
				logger.Ctx(ctx).Error().Err(err).Msg("API Key 校验失败")
				c.AbortWithStatusJSON(consts.StatusInternalServerError, utils.H{"error": "认证服务暂不可用"})
				return
			}
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "无效或缺失的 API Key"})
		}),
	)
}

// CompanyID 读取认证中间件写入的公司ID
func CompanyID(c *app.RequestContext) string {
	return c.GetString(CompanyIDKey)
}
