package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recruit-agent-go/internal/config"
	"recruit-agent-go/internal/logger"
)

var (
	// ErrNotFound 记录或对象不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 唯一字段冲突
	ErrDuplicate = errors.New("record already exists")
)

// FileStore 简历原件存储，MinIO 与本地目录均实现该接口
type FileStore interface {
	// SaveResume 保存简历原件并返回可回读的文件引用
	SaveResume(ctx context.Context, applicationID, ext string, data []byte, contentType string) (string, error)
	// ReadFile 通过文件引用读取内容，不存在时返回 ErrNotFound
	ReadFile(ctx context.Context, ref string) ([]byte, error)
}

var (
	_ FileStore = (*MinIO)(nil)
	_ FileStore = (*LocalFiles)(nil)
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 对象存储
	MinIO *MinIO

	// 未配置 MinIO 时的本地简历目录
	Local *LocalFiles

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis
}

// NewStorage 创建存储管理器，MySQL 为必需组件，其余组件按配置可选
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error
	var initErrors []string

	storage.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}

	// 初始化MinIO（如果配置了）
	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(ctx, &cfg.MinIO)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MinIO失败，改用本地目录保存简历")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		} else {
			logger.Info().Str("endpoint", cfg.MinIO.Endpoint).Msg("MinIO客户端初始化成功")
		}
	}
	if storage.MinIO == nil {
		storage.Local, err = NewLocalFiles(cfg.Storage.LocalDir)
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("初始化本地文件存储失败: %w", err)
		}
	}

	// 初始化RabbitMQ（如果配置了）
	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败，改用进程内调度")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	// 初始化Redis (如果配置了)
	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败，改用进程内锁")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		logger.Info().Msg("Redis未配置, 跳过初始化")
	}

	if len(initErrors) > 0 {
		logger.Warn().Str("components", strings.Join(initErrors, "; ")).Msg("部分存储组件初始化失败")
	}
	return storage, nil
}

// Files 返回当前生效的简历文件存储
func (s *Storage) Files() FileStore {
	if s.MinIO != nil {
		return s.MinIO
	}
	return s.Local
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
