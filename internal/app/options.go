package app

import (
	"time"

	"go.uber.org/fx"
)

// BootstrapOption Bootstrap 配置选项
type BootstrapOption func(*Bootstrap)

// WithFxDebug 输出 fx 装配事件（开发排障用）
func WithFxDebug(enable bool) BootstrapOption {
	return func(b *Bootstrap) {
		b.fxDebug = enable
	}
}

// WithLogFile 将所有子系统日志重定向到文件（追加模式）
func WithLogFile(path string) BootstrapOption {
	return func(b *Bootstrap) {
		b.logFile = path
	}
}

// WithLogLevel 设置日志级别，格式同 CRAWLER_LOG_LEVEL（如 "info" 或 "crawler=debug,session=warn"）
func WithLogLevel(spec string) BootstrapOption {
	return func(b *Bootstrap) {
		b.logLevel = spec
	}
}

// WithStartTimeout 启动超时
func WithStartTimeout(d time.Duration) BootstrapOption {
	return func(b *Bootstrap) {
		if d > 0 {
			b.startTimeout = d
		}
	}
}

// WithStopTimeout 停止超时
func WithStopTimeout(d time.Duration) BootstrapOption {
	return func(b *Bootstrap) {
		if d > 0 {
			b.stopTimeout = d
		}
	}
}

// WithFxOptions 追加 fx 选项，可用于替换时钟等依赖
func WithFxOptions(opts ...fx.Option) BootstrapOption {
	return func(b *Bootstrap) {
		b.extra = append(b.extra, opts...)
	}
}
