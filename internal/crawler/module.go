package crawler

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-crawler/config"
	"github.com/dep2p/go-crawler/internal/core/metrics"
	"github.com/dep2p/go-crawler/internal/core/session"
	"github.com/dep2p/go-crawler/internal/core/transport/tcp"
	"github.com/dep2p/go-crawler/internal/crawler/discovery"
	"github.com/dep2p/go-crawler/internal/crawler/filter"
	"github.com/dep2p/go-crawler/internal/crawler/report"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// DialerInput 会话拨号器依赖
type DialerInput struct {
	fx.In

	PrivateKey crypto.PrivateKey
	Config     *session.Config `optional:"true"`
	TCP        *tcp.Dialer     `optional:"true"`
	Clock      clock.Clock     `optional:"true"`
}

// ModuleInput 爬虫依赖
type ModuleInput struct {
	fx.In

	Dialer    Dialer
	Queue     *discovery.Queue
	Sink      report.Sink
	Reporter  metrics.Reporter
	Config    *config.CrawlerConfig `optional:"true"`
	Clock     clock.Clock           `optional:"true"`
	Bootnodes []multiaddr.Multiaddr `name:"bootnodes" optional:"true"`
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideDialer 创建会话拨号器
func ProvideDialer(in DialerInput) (Dialer, error) {
	opts := []session.Option{session.WithClock(in.Clock)}
	if in.Config != nil {
		opts = append(opts, session.WithConfig(in.Config))
	}
	if in.TCP != nil {
		opts = append(opts, session.WithDialFunc(in.TCP.Dial))
	}
	return session.NewDialer(in.PrivateKey, opts...)
}

// ConfigInput 可选的爬虫配置
type ConfigInput struct {
	fx.In

	Config *config.CrawlerConfig `optional:"true"`
}

// ProvideQueue 创建发现队列
func ProvideQueue(in ConfigInput) *discovery.Queue {
	cfg := in.Config
	if cfg == nil {
		d := config.DefaultCrawlerConfig()
		cfg = &d
	}
	return discovery.NewQueue(
		discovery.WithSize(cfg.QueueSize),
		discovery.WithRecheckAfter(cfg.RecheckAfter.Duration()),
	)
}

// ProvideSink 按配置打开报告输出
func ProvideSink(lc fx.Lifecycle, in ConfigInput) (report.Sink, error) {
	output := config.DefaultCrawlerConfig().Output
	if in.Config != nil {
		output = in.Config.Output
	}
	sink, err := report.Open(output)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sink.Close()
		},
	})
	return sink, nil
}

// ProvideCrawler 创建爬虫
func ProvideCrawler(in ModuleInput) *Crawler {
	cfg := config.DefaultCrawlerConfig()
	if in.Config != nil {
		cfg = *in.Config
	}
	f := filter.Filter(filter.TCP)
	if cfg.PublicOnly {
		f = filter.PublicOnly
	}
	return New(in.Dialer, in.Queue, in.Sink,
		WithConcurrency(cfg.Concurrency),
		WithFilter(f),
		WithReporter(in.Reporter),
		WithProcessor(report.NewProcessor(in.Clock)),
		WithBootnodes(in.Bootnodes...),
	)
}

// ============================================================================
//                              生命周期
// ============================================================================

type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Crawler *Crawler
}

// registerLifecycle 启动时在后台运行爬虫，停止时等待进行中的会话结束
func registerLifecycle(in lifecycleInput) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	in.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := in.Crawler.Run(ctx); err != nil {
					log.Error("爬虫异常退出", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// Module 返回爬虫 fx 模块
//
// 依赖 crypto.PrivateKey（identity 模块）与 metrics.Reporter（metrics 模块）。
func Module() fx.Option {
	return fx.Module("crawler",
		fx.Provide(
			ProvideDialer,
			ProvideQueue,
			ProvideSink,
			ProvideCrawler,
		),
		fx.Invoke(registerLifecycle),
	)
}
