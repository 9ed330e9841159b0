// Package logger 提供爬虫的统一日志系统
//
// 基于标准库 log/slog，每个子系统一个 Logger：
//
//	var log = logger.Logger("secio")
//
//	log.Debug("收到对端提议", "exchange", ex, "cipher", c)
//	log.Info("会话结束", "peer", pid, "outcome", outcome)
//
// 环境变量:
//
//	# 默认 info，secio 与 mplex 打开 debug
//	CRAWLER_LOG_LEVEL=secio=debug,mplex=debug,info
//
//	# JSON 输出
//	CRAWLER_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 子系统 -> *slog.Logger
	loggers sync.Map

	// handlers 子系统 -> *subsystemHandler，用于运行时调整级别
	handlers sync.Map
)

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用返回同一实例，级别取自 CRAWLER_LOG_LEVEL 或 Configure。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := currentConfig()
	h := newHandler(subsystem, cfg.LevelForSubsystem(subsystem), cfg.Format, cfg.AddSource)

	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(h))
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// Configure 用级别描述串覆盖环境变量配置
//
// 格式与 CRAWLER_LOG_LEVEL 相同；已创建的子系统 Logger 立即生效。
func Configure(levelSpec string) {
	cfg := currentConfig()
	parseLevelConfig(cfg, levelSpec)
	handlers.Range(func(key, value any) bool {
		value.(*subsystemHandler).SetLevel(cfg.LevelForSubsystem(key.(string)))
		return true
	})
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// Discard 返回一个丢弃所有日志的 Logger（测试用）
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// SetOutput 设置全局日志输出目标
//
// 已创建的 Logger 通过 dynamicWriter 同样被重定向。
func SetOutput(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}
