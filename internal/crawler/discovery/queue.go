// Package discovery 维护待拨号地址队列
//
// 队列对已在排队的地址去重，并对最近拨号过的地址节流：
// 地址被取出后进入一个带 TTL 的 LRU，TTL 内再次提交会被丢弃。
package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
)

var log = logger.Logger("discovery")

// 默认值
const (
	// DefaultSize 队列容量
	DefaultSize = 10000

	// DefaultRecheckAfter 同一地址两次拨号的最小间隔
	DefaultRecheckAfter = 30 * time.Minute
)

// SubmitResult 提交结果
type SubmitResult int

const (
	// Accepted 已入队
	Accepted SubmitResult = iota
	// Pending 已在队列中
	Pending
	// Recent 最近拨号过
	Recent
	// Full 队列已满
	Full
)

// String 返回结果名称
func (r SubmitResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Pending:
		return "pending"
	case Recent:
		return "recent"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Queue 待拨号地址队列，可并发使用
type Queue struct {
	ch chan multiaddr.Multiaddr

	mu      sync.Mutex
	pending map[string]struct{}
	recent  *expirable.LRU[string, struct{}]
}

// Option 队列选项
type Option func(*options)

type options struct {
	size         int
	recheckAfter time.Duration
}

// WithSize 设置队列容量
func WithSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithRecheckAfter 设置重访间隔；0 表示不节流
func WithRecheckAfter(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.recheckAfter = d
		}
	}
}

// NewQueue 创建队列
func NewQueue(opts ...Option) *Queue {
	o := options{size: DefaultSize, recheckAfter: DefaultRecheckAfter}
	for _, opt := range opts {
		opt(&o)
	}

	q := &Queue{
		ch:      make(chan multiaddr.Multiaddr, o.size),
		pending: make(map[string]struct{}, o.size),
	}
	if o.recheckAfter > 0 {
		// 记录数上限取队列容量的 10 倍，超出后最早的记录被淘汰
		q.recent = expirable.NewLRU[string, struct{}](o.size*10, nil, o.recheckAfter)
	}
	return q
}

// Submit 提交一个地址
func (q *Queue) Submit(addr multiaddr.Multiaddr) SubmitResult {
	if addr == nil {
		return Full
	}
	key := addr.String()

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[key]; ok {
		return Pending
	}
	if q.recent != nil && q.recent.Contains(key) {
		return Recent
	}
	select {
	case q.ch <- addr:
		q.pending[key] = struct{}{}
		return Accepted
	default:
		log.Debug("队列已满，丢弃地址", "addr", key)
		return Full
	}
}

// SubmitAll 批量提交，返回入队数
func (q *Queue) SubmitAll(addrs []multiaddr.Multiaddr) int {
	n := 0
	for _, a := range addrs {
		if q.Submit(a) == Accepted {
			n++
		}
	}
	return n
}

// Listen 返回待拨号地址流
//
// 地址在送出前记为"最近拨号"。ctx 结束后返回的 channel 被关闭。
// 同时只应有一个 Listen 消费者。
func (q *Queue) Listen(ctx context.Context) <-chan multiaddr.Multiaddr {
	out := make(chan multiaddr.Multiaddr)
	go func() {
		defer close(out)
		for {
			var addr multiaddr.Multiaddr
			select {
			case <-ctx.Done():
				return
			case addr = <-q.ch:
			}

			q.take(addr)
			select {
			case out <- addr:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *Queue) take(addr multiaddr.Multiaddr) {
	key := addr.String()
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, key)
	if q.recent != nil {
		q.recent.Add(key, struct{}{})
	}
}

// Len 排队中的地址数
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// RecentLen 节流窗口内的地址数
func (q *Queue) RecentLen() int {
	if q.recent == nil {
		return 0
	}
	return q.recent.Len()
}
