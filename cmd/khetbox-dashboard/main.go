package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shradha102005/KhetBox/internal/config"
	"github.com/Shradha102005/KhetBox/internal/logger"
	"github.com/Shradha102005/KhetBox/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "khetbox-dashboard")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建服务
	dashboard, err := service.NewDashboardService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create dashboard service", zap.Error(err))
	}
	defer dashboard.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. 启动服务
	serviceErrChan := make(chan error, 1)
	serviceDone := make(chan struct{})
	go func() {
		defer close(serviceDone)
		if err := dashboard.Start(ctx); err != nil {
			serviceErrChan <- err
		}
	}()

	// 5. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		<-serviceDone
	case err := <-serviceErrChan:
		log.Error("Service error", zap.Error(err))
		cancel()
	}

	log.Info("Dashboard service stopped")
}
