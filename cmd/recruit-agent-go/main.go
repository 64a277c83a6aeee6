package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recruit-agent-go/internal/api/handler"
	"recruit-agent-go/internal/api/middleware"
	"recruit-agent-go/internal/api/router"
	"recruit-agent-go/internal/config"
	"recruit-agent-go/internal/constants"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/notify"
	"recruit-agent-go/internal/outbox"
	"recruit-agent-go/internal/parser"
	"recruit-agent-go/internal/processor"
	"recruit-agent-go/internal/report"
	"recruit-agent-go/internal/scoring"
	"recruit-agent-go/internal/storage"
	"recruit-agent-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

// @title           Recruitment Agent API
// @version         1.0
// @description     岗位发布、简历投递、自动评分与招聘报告
// @BasePath  /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	// 1. 加载配置并初始化日志
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置文件失败")
	}
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	})
	logger.InitHertz()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn().Err(err).Msg("初始化链路追踪失败，继续运行")
		shutdownTracing = func(context.Context) error { return nil }
	}

	// 2. 初始化存储
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储管理器失败")
	}
	defer storageManager.Close()

	// 3. 申请处理流水线
	extractor, err := parser.NewTextExtractorFromConfig(ctx, cfg.Extractor)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文本提取器失败")
	}
	engine, err := scoring.NewEngineFromConfig(cfg.Scoring)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化评分引擎失败")
	}
	proc := processor.NewApplicationProcessor(
		storageManager.MySQL,
		storageManager.Files(),
		extractor,
		engine,
		processor.WithProcessingTimeout(config.GetDuration(cfg.Pipeline.Timeout, constants.DefaultProcessingTimeout)),
	)
	guard := newGuard(storageManager)

	// 4. 事件投递：有 RabbitMQ 时走消息队列，否则进程内调度
	var publisher outbox.Publisher
	var consumer *processor.ApplicationConsumer
	var dispatcher *processor.LocalDispatcher
	if storageManager.RabbitMQ != nil {
		if err := storageManager.RabbitMQ.SetupApplicationTopology(); err != nil {
			logger.Fatal().Err(err).Msg("声明RabbitMQ拓扑失败")
		}
		consumer = processor.NewApplicationConsumer(
			storageManager.RabbitMQ,
			proc,
			guard,
			cfg.RabbitMQ.ProcessingQueue,
			cfg.RabbitMQ.PrefetchCount,
			cfg.RabbitMQ.ConsumerWorkers,
		)
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("启动申请处理消费者失败")
		}
		publisher = storageManager.RabbitMQ
	} else {
		dispatcher = processor.NewLocalDispatcher(proc, guard, cfg.Pipeline.LocalWorkers)
		dispatcher.Start(ctx)
		publisher = dispatcher
		logger.Info().Int("workers", cfg.Pipeline.LocalWorkers).Msg("未配置RabbitMQ，使用进程内调度")
	}

	relay := outbox.NewMessageRelay(
		storageManager.MySQL.DB(),
		publisher,
		outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.OutboxPollInterval, 0)),
		outbox.WithBatchSize(cfg.RabbitMQ.OutboxBatchSize),
		outbox.WithMaxRetries(cfg.RabbitMQ.OutboxMaxPublishRetries),
	)
	relay.Start()

	// 5. 报告服务
	var archive report.Archive
	var linker handler.ReportLinker
	if storageManager.MinIO != nil {
		archive = storageManager.MinIO
		linker = storageManager.MinIO
	}
	var mailer notify.Mailer
	if smtpMailer, err := notify.NewSMTPMailer(cfg.SMTP); err != nil {
		logger.Warn().Err(err).Msg("未配置SMTP，报告不会发送邮件")
	} else {
		mailer = smtpMailer
	}
	reports := report.NewService(storageManager.MySQL, archive, mailer, engine.ModelName())

	// 6. HTTP 服务
	hd := handler.NewHandler(storageManager.MySQL, storageManager.Files(), reports, linker, handler.Options{
		Exchange:       cfg.RabbitMQ.ApplicationExchange,
		RoutingKey:     cfg.RabbitMQ.SubmittedRoutingKey,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	var cache middleware.Cache
	if storageManager.Redis != nil {
		cache = storageManager.Redis
	}
	auth := middleware.CompanyAuth(middleware.NewCompanyResolver(storageManager.MySQL, cache), cfg.Server.APIKeyHeader)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.Storage.MaxUploadBytes)+1<<20),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		logger.Ctx(c).Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("HTTP请求")
	})
	router.RegisterRoutes(h, hd, auth)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("HTTP服务器运行失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP服务器关闭失败")
	}

	relay.Stop()
	if dispatcher != nil {
		dispatcher.Stop()
	}
	cancel()
	if consumer != nil {
		consumer.Wait()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("服务已退出")
}

// newGuard 有 Redis 时使用分布式锁，否则进程内去重
func newGuard(s *storage.Storage) processor.Guard {
	if s.Redis != nil {
		return processor.NewRedisGuard(s.Redis, s.Redis.LockTTL())
	}
	return processor.NewMemoryGuard()
}
