package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sigfuse/internal/app"
	"sigfuse/internal/config"
	"sigfuse/internal/logger"
)

func main() {
	cfgPath := os.Getenv("SIGFUSE_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功 (method=%s)", cfg.Fusion.Method)

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := config.NewWatcher(cfgPath, a.ApplyConfig)
	if err != nil {
		logger.Warnf("配置热加载不可用: %v", err)
	} else {
		go watcher.Run(ctx)
	}

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("运行失败: %v", err)
	}
}
