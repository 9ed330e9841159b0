package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
// RateMeter - 速率计算器
// ============================================================================

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶来计算最近 60 秒的平均速率。
type RateMeter struct {
	mu       sync.RWMutex
	clock    clock.Clock
	buckets  [60]int64 // 60 个 1 秒桶
	lastIdx  int       // 最后写入的桶索引
	lastTime time.Time // 最后更新时间
}

// NewRateMeter 创建速率计算器
func NewRateMeter(c clock.Clock) *RateMeter {
	if c == nil {
		c = clock.New()
	}
	return &RateMeter{
		clock:    c,
		lastTime: c.Now(),
	}
}

// Add 添加计数到当前桶
func (r *RateMeter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(r.clock.Now())
	r.buckets[r.lastIdx] += n
}

// advance 把窗口移动到 now，清空跳过的桶
func (r *RateMeter) advance(now time.Time) {
	elapsed := now.Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}
	seconds := int(elapsed / time.Second)
	if seconds >= 60 {
		// 超过 60 秒没有数据
		r.buckets = [60]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % 60
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}

// Rate 返回平均速率（每秒）
func (r *RateMeter) Rate() float64 {
	return float64(r.Total()) / 60.0
}

// Total 返回窗口内的总量
func (r *RateMeter) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(r.clock.Now())
	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return total
}

// Reset 重置速率计算器
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = [60]int64{}
	r.lastIdx = 0
	r.lastTime = r.clock.Now()
}
