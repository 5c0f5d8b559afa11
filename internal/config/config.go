package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	LogLevel          string
	UploadDir         string
	UploadURLPath     string
	SuperRootUserName string
	SuperRootPassword string
	SiteBaseURL       string
	SiteConfigPath    string
	Site              SiteConfig
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// SITE_CONFIG 指向的 YAML 文件不存在时使用内置站点配置，格式错误时返回错误。
func Load() (AppConfig, error) {
	port := envOr("PORT", "8080")

	cfg := AppConfig{
		ListenAddr:        envOr("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:              port,
		DatabasePath:      envOr("DATABASE_PATH", "studentavis.db"),
		SessionSecret:     envOr("SESSION_SECRET", "studentavis-dev-secret"),
		GinMode:           envOr("GIN_MODE", "release"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		UploadDir:         envOr("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:     envOr("UPLOAD_URL_PATH", "/static/uploads"),
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		SiteBaseURL:       strings.TrimRight(envOr("SITE_BASE_URL", "http://localhost:"+port), "/"),
		SiteConfigPath:    envOr("SITE_CONFIG", "site.yaml"),
	}

	site, err := LoadSiteFile(cfg.SiteConfigPath)
	if err != nil {
		return cfg, err
	}
	cfg.Site = site
	return cfg, nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
