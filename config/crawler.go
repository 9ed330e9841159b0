package config

import (
	"errors"
	"time"
)

// CrawlerConfig 爬虫循环配置
type CrawlerConfig struct {
	// Concurrency 同时进行的会话数
	Concurrency int `json:"concurrency"`

	// Bootnodes 启动时放入队列的地址
	// 格式为 multiaddr，例如 "/dns4/p2p.example.org/tcp/30333/p2p/12D3KooW..."
	Bootnodes []string `json:"bootnodes"`

	// RecheckAfter 同一地址两次拨号的最小间隔
	RecheckAfter Duration `json:"recheck_after"`

	// QueueSize 待拨号队列容量，满时新地址被丢弃
	QueueSize int `json:"queue_size"`

	// PublicOnly 只把公网地址放回队列
	PublicOnly bool `json:"public_only"`

	// Output 报告输出路径，"-" 表示标准输出
	Output string `json:"output"`
}

// DefaultCrawlerConfig 返回默认爬虫配置
func DefaultCrawlerConfig() CrawlerConfig {
	return CrawlerConfig{
		Concurrency:  32,
		RecheckAfter: Duration(30 * time.Minute),
		QueueSize:    10000,
		PublicOnly:   true,
		Output:       "-",
	}
}

// Validate 验证爬虫配置
func (c CrawlerConfig) Validate() error {
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.New("queue size must be positive")
	}
	if c.RecheckAfter < 0 {
		return errors.New("recheck interval must not be negative")
	}
	if c.Output == "" {
		return errors.New("output must be set")
	}
	return nil
}
