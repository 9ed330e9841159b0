package crawler

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dep2p/go-crawler/internal/core/metrics"
	"github.com/dep2p/go-crawler/internal/core/session"
	"github.com/dep2p/go-crawler/internal/crawler/discovery"
	"github.com/dep2p/go-crawler/internal/crawler/filter"
	"github.com/dep2p/go-crawler/internal/crawler/report"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
)

var log = logger.Logger("crawler")

// DefaultConcurrency 默认并发会话数
const DefaultConcurrency = 32

// ErrAlreadyRunning Run 被重复调用
var ErrAlreadyRunning = errors.New("crawler already running")

// Dialer 对一个地址执行一次会话
//
// *session.Dialer 满足此接口。
type Dialer interface {
	Dial(ctx context.Context, addr multiaddr.Multiaddr) (*session.Result, error)
}

// Crawler 爬取循环
type Crawler struct {
	dialer    Dialer
	queue     *discovery.Queue
	sink      report.Sink
	filter    filter.Filter
	processor *report.Processor
	reporter  metrics.Reporter
	bootnodes []multiaddr.Multiaddr

	concurrency int
	sem         *semaphore.Weighted

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// Option 爬虫选项
type Option func(*Crawler)

// WithConcurrency 设置并发会话数
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithFilter 设置回队地址的过滤器；默认只接受公网地址
func WithFilter(f filter.Filter) Option {
	return func(c *Crawler) {
		c.filter = f
	}
}

// WithReporter 设置指标
func WithReporter(r metrics.Reporter) Option {
	return func(c *Crawler) {
		c.reporter = r
	}
}

// WithProcessor 设置报告加工器
func WithProcessor(p *report.Processor) Option {
	return func(c *Crawler) {
		c.processor = p
	}
}

// WithBootnodes 设置启动时入队的地址
func WithBootnodes(addrs ...multiaddr.Multiaddr) Option {
	return func(c *Crawler) {
		c.bootnodes = append(c.bootnodes, addrs...)
	}
}

// New 创建爬虫
func New(dialer Dialer, queue *discovery.Queue, sink report.Sink, opts ...Option) *Crawler {
	c := &Crawler{
		dialer:      dialer,
		queue:       queue,
		sink:        sink,
		filter:      filter.PublicOnly,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.processor == nil {
		c.processor = report.NewProcessor(nil)
	}
	if c.reporter == nil {
		c.reporter = metrics.NewCollector(nil)
	}
	c.sem = semaphore.NewWeighted(int64(c.concurrency))
	return c
}

// Run 运行爬取循环直到 ctx 结束
//
// 返回前等待所有进行中的会话结束。ctx 结束是正常退出，返回 nil。
func (c *Crawler) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	n := c.queue.SubmitAll(c.bootnodes)
	log.Info("爬虫已启动", "bootnodes", n, "concurrency", c.concurrency)

	for addr := range c.queue.Listen(ctx) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			break
		}
		c.wg.Add(1)
		go func(addr multiaddr.Multiaddr) {
			defer c.wg.Done()
			defer c.sem.Release(1)
			c.visit(ctx, addr)
		}(addr)
	}

	c.wg.Wait()
	log.Info("爬虫已停止", "stats", c.reporter.Stats())
	return nil
}

// visit 对一个地址执行会话并分发结果
func (c *Crawler) visit(ctx context.Context, addr multiaddr.Multiaddr) {
	res, err := c.dialer.Dial(ctx, addr)
	if err != nil {
		// 关闭过程中被取消的会话不计入失败
		if ctx.Err() == nil {
			c.reporter.ReportBootstrapFailure(err)
		}
		return
	}

	summary := &res.Summary
	c.reporter.ReportSession(summary)
	c.reporter.ReportDiscovered(len(res.Discovered))

	if summary.Outcome != session.OutcomeFailed {
		if err := c.sink.Emit(c.processor.Process(summary)); err != nil {
			log.Warn("写入报告失败", "addr", addr.String(), "err", err)
		}
	}

	if len(res.Discovered) == 0 {
		return
	}
	accepted := c.filter.Apply(res.Discovered)
	queued := c.queue.SubmitAll(accepted)
	log.Debug("发现地址已入队",
		"peer", summary.PeerID.ShortString(),
		"discovered", len(res.Discovered),
		"accepted", len(accepted),
		"queued", queued)
}
