package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/dep2p/go-crawler/internal/util/logger"
)

var log = logger.Logger("app")

// App 运行中的爬虫应用
type App struct {
	bootstrap *Bootstrap
	stopOnce  sync.Once
	stopped   chan struct{}
	stopErr   error
}

// RunApp 构建并启动爬虫应用
//
// 示例:
//
//	a, err := app.RunApp(ctx, app.NewBootstrap(cfg))
//	if err != nil {
//	    return err
//	}
//	a.Wait(ctx)
//	return a.Stop()
func RunApp(ctx context.Context, bootstrap *Bootstrap) (*App, error) {
	if err := bootstrap.Start(ctx); err != nil {
		return nil, err
	}
	return &App{
		bootstrap: bootstrap,
		stopped:   make(chan struct{}),
	}, nil
}

// Wait 阻塞直到收到 SIGINT/SIGTERM、ctx 结束或 Stop 被调用
func (a *App) Wait(ctx context.Context) {
	select {
	case sig := <-a.bootstrap.Done():
		log.Info("收到退出信号，正在停止", "signal", sig.String())
	case <-ctx.Done():
	case <-a.stopped:
	}
}

// Stop 停止应用，可重复调用
func (a *App) Stop() error {
	a.stopOnce.Do(func() {
		close(a.stopped)
		if err := a.bootstrap.Stop(context.Background()); err != nil {
			a.stopErr = fmt.Errorf("停止应用失败: %w", err)
		}
	})
	return a.stopErr
}
