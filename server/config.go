package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "ENVOY_"

// Config 为从环境变量读取的进程配置（前缀 ENVOY_）
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"envoy"`

	// 日志
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	// LogPath 为空时日志写到 stderr，否则写入文件并在 ReopenLogs 时重新打开
	LogPath      string `env:"LOG_PATH"`
	AdminAddress string `env:"ADMIN_ADDRESS"`

	DrainTimeout time.Duration `env:"DRAIN_TIMEOUT" envDefault:"5s"`
}

// LoadConfig 从 environ 解析配置；environ 为 nil 时读取进程环境变量
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      envPrefix,
		Environment: environ,
	}); err != nil {
		return Config{}, fmt.Errorf("server: parse config: %w", err)
	}
	return cfg, nil
}
