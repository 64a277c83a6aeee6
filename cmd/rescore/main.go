package main

import (
	"context"
	"sync"

	"recruit-agent-go/internal/config"
	"recruit-agent-go/internal/logger"
	"recruit-agent-go/internal/parser"
	"recruit-agent-go/internal/processor"
	"recruit-agent-go/internal/scoring"
	"recruit-agent-go/internal/storage"

	"github.com/spf13/pflag"
)

// 重新解析并评分某个岗位下的申请，用于调整评分规则或修复解析失败后的数据
func main() {
	var (
		configPath  string
		jobID       string
		status      string
		concurrency int
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.StringVarP(&jobID, "job", "j", "", "岗位ID (必填)")
	pflag.StringVarP(&status, "status", "s", "", "只处理该状态的申请，为空则处理全部")
	pflag.IntVarP(&concurrency, "concurrency", "n", 5, "并发数")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format, TimeFormat: cfg.Logger.TimeFormat})

	if jobID == "" {
		logger.Fatal().Msg("必须通过 --job 指定岗位ID")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx := context.Background()
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	extractor, err := parser.NewTextExtractorFromConfig(ctx, cfg.Extractor)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文本提取器失败")
	}
	engine, err := scoring.NewEngineFromConfig(cfg.Scoring)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化评分引擎失败")
	}
	proc := processor.NewApplicationProcessor(storageManager.MySQL, storageManager.Files(), extractor, engine)

	var guard processor.Guard = processor.NewMemoryGuard()
	if storageManager.Redis != nil {
		guard = processor.NewRedisGuard(storageManager.Redis, storageManager.Redis.LockTTL())
	}

	apps, err := storageManager.MySQL.ListApplicationsByJob(ctx, jobID, status)
	if err != nil {
		logger.Fatal().Err(err).Str("job_id", jobID).Msg("查询申请列表失败")
	}
	logger.Info().Str("job_id", jobID).Int("count", len(apps)).Msg("开始重新评分")

	// 使用信号量控制并发
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	skipped := 0

	for _, app := range apps {
		applicationID := app.ID
		semaphore <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-semaphore
				wg.Done()
			}()
			release, ok, err := guard.TryAcquire(ctx, applicationID)
			if err != nil || !ok {
				logger.Warn().Err(err).Str("application_id", applicationID).Msg("申请正在被其他进程处理，跳过")
				mu.Lock()
				skipped++
				mu.Unlock()
				return
			}
			defer release()
			proc.Process(ctx, applicationID)
		}()
	}
	wg.Wait()

	logger.Info().
		Str("job_id", jobID).
		Int("processed", len(apps)-skipped).
		Int("skipped", skipped).
		Msg("重新评分完成")
}
