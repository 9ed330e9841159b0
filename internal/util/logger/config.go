package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 环境变量名
const (
	EnvLevel     = "CRAWLER_LOG_LEVEL"
	EnvFormat    = "CRAWLER_LOG_FORMAT"
	EnvAddSource = "CRAWLER_LOG_ADD_SOURCE"
)

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	DefaultLevel    slog.Level
	SubsystemLevels map[string]slog.Level
	Format          LogFormat
	AddSource       bool
}

// LevelForSubsystem 获取指定子系统的日志级别
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

var (
	cfgMu  sync.Mutex
	cfgVal *Config
)

// currentConfig 返回进程级配置，首次调用时从环境变量解析
func currentConfig() *Config {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if cfgVal == nil {
		cfgVal = ConfigFromEnv()
	}
	return cfgVal
}

// ConfigFromEnv 从环境变量解析配置
func ConfigFromEnv() *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}

	if s := os.Getenv(EnvLevel); s != "" {
		parseLevelConfig(cfg, s)
	}
	if strings.EqualFold(os.Getenv(EnvFormat), "json") {
		cfg.Format = FormatJSON
	}
	if s := os.Getenv(EnvAddSource); s != "" {
		cfg.AddSource = s != "false" && s != "0"
	}
	return cfg
}

// parseLevelConfig 解析 "subsystem=level,...,defaultLevel"
func parseLevelConfig(cfg *Config, spec string) {
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, levelName, found := strings.Cut(part, "=")
		if !found {
			if level, ok := parseLevel(part); ok {
				cfg.DefaultLevel = level
			}
			continue
		}
		if level, ok := parseLevel(strings.TrimSpace(levelName)); ok {
			cfg.SubsystemLevels[strings.TrimSpace(name)] = level
		}
	}
}

// parseLevel 解析日志级别名称
func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ResetConfig 丢弃已解析的配置（仅用于测试）
func ResetConfig() {
	cfgMu.Lock()
	cfgVal = nil
	cfgMu.Unlock()
}
