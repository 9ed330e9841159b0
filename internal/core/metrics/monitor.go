package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-crawler/internal/util/logger"
)

var log = logger.Logger("metrics")

// DefaultReportInterval 默认周期日志间隔
const DefaultReportInterval = 60 * time.Second

// Monitor 周期性输出本窗口内处理的节点数
type Monitor struct {
	reporter Reporter
	clock    clock.Clock
	interval time.Duration

	mu             sync.Mutex
	lastProcessed  int64
	lastDiscovered int64
}

// NewMonitor 创建监控器
func NewMonitor(r Reporter, c clock.Clock, interval time.Duration) *Monitor {
	if c == nil {
		c = clock.New()
	}
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Monitor{
		reporter: r,
		clock:    c,
		interval: interval,
	}
}

// Window 返回自上次调用以来处理的节点数与发现的地址数
func (m *Monitor) Window() (processed, discovered int64) {
	st := m.reporter.Stats()

	m.mu.Lock()
	defer m.mu.Unlock()
	processed = st.Processed() - m.lastProcessed
	discovered = st.Discovered - m.lastDiscovered
	m.lastProcessed = st.Processed()
	m.lastDiscovered = st.Discovered
	return processed, discovered
}

// Run 每个间隔输出一行日志，直到 ctx 结束
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed, discovered := m.Window()
			log.Info("发现节点",
				"count", processed,
				"discovered", discovered,
				"window", m.interval.String())
		}
	}
}
