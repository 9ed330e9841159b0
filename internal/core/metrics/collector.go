package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-crawler/internal/core/session"
	"github.com/dep2p/go-crawler/pkg/types"
)

const namespace = "crawler"

// 引导失败原因标签
const (
	ReasonConnect            = "connect"
	ReasonUnsupportedAddress = "unsupported_address"
	ReasonFraming            = "framing"
	ReasonNegotiation        = "negotiation"
	ReasonHandshake          = "handshake"
	ReasonProtocol           = "protocol"
	ReasonTimeout            = "timeout"
	ReasonCanceled           = "canceled"
	ReasonOther              = "other"
)

// Collector 基于 Prometheus 的指标收集器
type Collector struct {
	registry *prometheus.Registry

	sessions     *prometheus.CounterVec
	failures     *prometheus.CounterVec
	discovered   prometheus.Counter
	duration     prometheus.Histogram
	closestPeers prometheus.Histogram

	rate *RateMeter

	success    atomic.Int64
	partial    atomic.Int64
	failed     atomic.Int64
	bootFailed atomic.Int64
	addrs      atomic.Int64
}

// NewCollector 创建收集器
//
// 每个收集器有独立的 Registry，同时注册 Go 运行时与进程指标。
func NewCollector(c clock.Clock) *Collector {
	col := &Collector{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Sessions that produced a peer summary, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_failures_total",
			Help:      "Sessions that failed before mplex became active, by reason.",
		}, []string{"reason"}),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovered_addrs_total",
			Help:      "Addresses returned by kad FIND_NODE responses.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connection_duration_seconds",
			Help:      "Time between connect and disconnect of a session.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}),
		closestPeers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "closest_peers",
			Help:      "Peers returned by kad per session.",
			Buckets:   prometheus.LinearBuckets(0, 5, 13),
		}),
		rate: NewRateMeter(c),
	}

	col.registry.MustRegister(
		col.sessions,
		col.failures,
		col.discovered,
		col.duration,
		col.closestPeers,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processed_rate",
			Help:      "Peers processed per second over the last 60 seconds.",
		}, col.rate.Rate),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, o := range []session.Outcome{session.OutcomeSuccess, session.OutcomePartial, session.OutcomeFailed} {
		col.sessions.WithLabelValues(o.String())
	}
	return col
}

// ReportSession 记录一次产生摘要的会话
func (c *Collector) ReportSession(s *session.PeerSummary) {
	if s == nil {
		return
	}
	c.sessions.WithLabelValues(s.Outcome.String()).Inc()
	switch s.Outcome {
	case session.OutcomeSuccess:
		c.success.Add(1)
	case session.OutcomePartial:
		c.partial.Add(1)
	default:
		c.failed.Add(1)
	}

	if !s.DisconnectedAt.IsZero() {
		c.duration.Observe(s.Duration().Seconds())
	}
	c.closestPeers.Observe(float64(s.ClosestPeers))
	c.rate.Add(1)
}

// ReportBootstrapFailure 记录一次引导失败
func (c *Collector) ReportBootstrapFailure(err error) {
	if err == nil {
		return
	}
	c.failures.WithLabelValues(Reason(err)).Inc()
	c.bootFailed.Add(1)
}

// ReportDiscovered 记录 kad 返回的地址数
func (c *Collector) ReportDiscovered(n int) {
	if n <= 0 {
		return
	}
	c.discovered.Add(float64(n))
	c.addrs.Add(int64(n))
}

// Stats 获取累计统计
func (c *Collector) Stats() Stats {
	return Stats{
		Success:           c.success.Load(),
		Partial:           c.partial.Load(),
		Failed:            c.failed.Load(),
		BootstrapFailures: c.bootFailed.Load(),
		Discovered:        c.addrs.Load(),
		Rate:              c.rate.Rate(),
	}
}

// Registry 返回收集器的 Registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回 Prometheus 文本格式的 HTTP 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Reason 把引导错误归类为标签值
//
// 超时先于其他类别判断：会话预算耗尽时底层错误通常同时包装了连接或握手错误。
func Reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, types.ErrUnsupportedAddress):
		return ReasonUnsupportedAddress
	case errors.Is(err, types.ErrConnect):
		return ReasonConnect
	case errors.Is(err, types.ErrHandshake):
		return ReasonHandshake
	case errors.Is(err, types.ErrNegotiation):
		return ReasonNegotiation
	case errors.Is(err, types.ErrFraming):
		return ReasonFraming
	case errors.Is(err, types.ErrProtocolViolation):
		return ReasonProtocol
	default:
		return ReasonOther
	}
}
