// Package app 提供爬虫应用编排层
//
// app 包负责：
// - fx 模块组装
// - 日志输出与级别设置
// - 生命周期管理
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dep2p/go-crawler/config"
	"github.com/dep2p/go-crawler/internal/util/logger"
)

const (
	// DefaultStartTimeout 默认启动超时
	DefaultStartTimeout = 30 * time.Second

	// DefaultStopTimeout 默认停止超时
	DefaultStopTimeout = 30 * time.Second
)

// Bootstrap 应用引导程序
//
// Bootstrap 负责：
// - 组装 fx 模块
// - 重定向日志
// - 启动与停止 fx 应用
type Bootstrap struct {
	config *config.Config

	fxDebug      bool
	logFile      string
	logLevel     string
	startTimeout time.Duration
	stopTimeout  time.Duration
	extra        []fx.Option

	fxApp   *fx.App
	logOut  *os.File
	started bool
}

// NewBootstrap 创建引导程序
func NewBootstrap(cfg *config.Config, opts ...BootstrapOption) *Bootstrap {
	b := &Bootstrap{
		config:       cfg,
		startTimeout: DefaultStartTimeout,
		stopTimeout:  DefaultStopTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build 构建 fx 应用（不启动）
func (b *Bootstrap) Build() (*fx.App, error) {
	if b.fxApp != nil {
		return b.fxApp, nil
	}
	if b.config == nil {
		return nil, config.ErrNilConfig
	}

	// 应用日志配置（必须在所有模块初始化之前）
	if err := b.setupLogging(); err != nil {
		return nil, fmt.Errorf("设置日志失败: %w", err)
	}

	app := fx.New(
		fx.Supply(b.config),
		Modules(),
		fx.Options(b.extra...),
		b.fxLogger(),
	)
	if err := app.Err(); err != nil {
		b.closeLog()
		return nil, fmt.Errorf("构建应用失败: %w", err)
	}
	b.fxApp = app
	return app, nil
}

// Start 构建并启动应用
//
// 启动后爬虫在后台运行；调用 Stop 或向 Done 发送信号结束。
func (b *Bootstrap) Start(ctx context.Context) error {
	app, err := b.Build()
	if err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, b.startTimeout)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		b.closeLog()
		return fmt.Errorf("启动应用失败: %w", err)
	}
	b.started = true
	return nil
}

// Done 返回 fx 监听的退出信号（SIGINT/SIGTERM）
func (b *Bootstrap) Done() <-chan os.Signal {
	if b.fxApp == nil {
		return nil
	}
	return b.fxApp.Done()
}

// Stop 停止应用
func (b *Bootstrap) Stop(ctx context.Context) error {
	if b.fxApp == nil || !b.started {
		return nil
	}
	b.started = false

	stopCtx, cancel := context.WithTimeout(ctx, b.stopTimeout)
	defer cancel()

	err := b.fxApp.Stop(stopCtx)
	return multierr.Append(err, b.closeLog())
}

func (b *Bootstrap) fxLogger() fx.Option {
	if !b.fxDebug {
		return fx.NopLogger
	}
	return fx.WithLogger(func() fxevent.Logger {
		l, err := zap.NewDevelopment()
		if err != nil {
			l = zap.NewNop()
		}
		return &fxevent.ZapLogger{Logger: l}
	})
}

// setupLogging 配置日志级别与输出
//
// 如果指定了日志文件，将所有日志重定向到文件
func (b *Bootstrap) setupLogging() error {
	if b.logLevel != "" {
		logger.Configure(b.logLevel)
	}
	if b.logFile == "" {
		return nil
	}

	file, err := os.OpenFile(b.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	b.logOut = file
	logger.SetOutput(file)

	log := logger.Logger("bootstrap")
	log.Info("日志文件初始化成功", "path", b.logFile)
	return nil
}

func (b *Bootstrap) closeLog() error {
	if b.logOut == nil {
		return nil
	}
	logger.SetOutput(os.Stderr)
	err := b.logOut.Close()
	b.logOut = nil
	return err
}
