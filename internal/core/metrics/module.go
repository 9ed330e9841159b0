package metrics

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-crawler/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否启动 HTTP 端点
	Enabled bool

	// ListenAddr HTTP 端点地址
	ListenAddr string

	// Path 指标路径
	Path string

	// ReportInterval 周期日志间隔
	ReportInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultMetricsConfig()
	return Config{
		Enabled:        d.Enabled,
		ListenAddr:     d.ListenAddr,
		Path:           d.Path,
		ReportInterval: d.ReportInterval.Duration(),
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.MetricsConfig) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:        cfg.Enabled,
		ListenAddr:     cfg.ListenAddr,
		Path:           cfg.Path,
		ReportInterval: cfg.ReportInterval.Duration(),
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.MetricsConfig `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(
		NewCollectorFromParams,
		func(c *Collector) Reporter { return c },
	),
	fx.Invoke(registerLifecycle),
)

// NewCollectorFromParams 从参数创建 Collector
func NewCollectorFromParams(p Params) *Collector {
	return NewCollector(p.Clock)
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Collector  *Collector
	UnifiedCfg *config.MetricsConfig `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// registerLifecycle 启动周期日志，开启时启动 HTTP 端点
func registerLifecycle(in lifecycleInput) {
	cfg := ConfigFromUnified(in.UnifiedCfg)
	monitor := NewMonitor(in.Collector, in.Clock, cfg.ReportInterval)

	var server *Server
	if cfg.Enabled {
		server = NewServer(cfg.ListenAddr, cfg.Path, in.Collector.Handler())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if server != nil {
				if err := server.Start(); err != nil {
					cancel()
					return err
				}
			}
			go func() {
				defer close(done)
				monitor.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			<-done
			if server != nil {
				return server.Stop(stopCtx)
			}
			return nil
		},
	})
}
