package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signature-gateway/config"
	"signature-gateway/database"
	"signature-gateway/pkg/logger"
	"signature-gateway/router"
)

const serviceName = "signature-gateway"

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	logger.InitWithConfig(logConfig(cfg.Log))
	defer logger.Close()

	if cfg.Log.Driver == "mongodb" {
		logDB, err := mongoLogWriter(cfg.Log)
		if err != nil {
			logger.Errorf("Failed to set up MongoDB logging: %v", err)
			os.Exit(1)
		}
		// 先关闭日志再断开连接，缓冲中的日志才能写出
		defer func() {
			logger.Close()
			_ = logDB.Close(context.Background())
		}()
	}

	dbManager, err := database.NewDatabaseManager(cfg)
	if err != nil {
		logger.Errorf("Failed to initialize database: %v", err)
		os.Exit(1)
	}

	r, stopRouter, err := router.SetupRouter(cfg, dbManager)
	if err != nil {
		logger.Errorf("Failed to set up router: %v", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Infof("Signature gateway starting on port %d", cfg.Port)
	logger.Infof("Config loaded - algorithm: %s, window: %ds, replay protection: %s, targets: %d",
		cfg.Signature.Algorithm, cfg.Signature.TimeWindow, cfg.Signature.ReplayProtection, len(cfg.Targets))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	stopRouter()
	if err := dbManager.Close(ctx); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	logger.Info("Server exited")
}

// logConfig 将配置文件中的日志驱动映射为 logx 的 mode/rotation。
// mongodb 驱动按 console 初始化，之后由 mongoLogWriter 替换输出
func logConfig(c config.LogConfig) logger.Config {
	lc := logger.DefaultConfig(serviceName)
	lc.Level = c.Level
	lc.Encoding = c.Format
	lc.KeepDays = c.KeepDays

	switch c.Driver {
	case "single":
		lc.Mode = "file"
		lc.Path = c.Path
		lc.Rotation = "size"
	case "daily":
		lc.Mode = "file"
		lc.Path = c.Path
		lc.Rotation = "daily"
	}
	return lc
}

// mongoLogWriter 连接日志库并把 logx 的输出切换到 MongoDB
func mongoLogWriter(c config.LogConfig) (*database.MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logDB, err := database.NewMongoDB(ctx, c.URL, c.Database)
	if err != nil {
		return nil, err
	}
	logger.SetWriter(logger.NewMongoWriter(logDB.GetCollection(c.Collection), c.Buffer))
	return logDB, nil
}
