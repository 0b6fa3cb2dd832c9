package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	SessionSecret string
	SecureCookies bool
	GinMode       string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 工作目录存在 .env 文件时优先加载，便于本地开发。
func Load() AppConfig {
	// .env 缺失时静默忽略，生产环境直接读系统环境变量
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "fridgelog.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "fridgelog-dev-secret"
	}

	// 默认 false：服务通常跑在纯 HTTP 上，Secure cookie 会导致会话无法回传
	secureCookies := strings.EqualFold(strings.TrimSpace(os.Getenv("SESSION_SECURE")), "true")

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabasePath:  databasePath,
		SessionSecret: sessionSecret,
		SecureCookies: secureCookies,
		GinMode:       ginMode,
	}
}
