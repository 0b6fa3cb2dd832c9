package main

import (
	"log/slog"
	"os"

	"github.com/fridgelog/internal/config"
	"github.com/fridgelog/internal/db"
	"github.com/fridgelog/internal/router"
	"github.com/gin-gonic/gin"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	// 首次启动可通过环境变量播种初始账号
	if err := db.EnsureUser(os.Getenv("INIT_USER_NAME"), os.Getenv("INIT_USER_PASSWORD")); err != nil {
		slog.Error("failed to ensure initial user", "error", err)
		os.Exit(1)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg.SessionSecret, cfg.SecureCookies)
	slog.Info("server starting", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}
