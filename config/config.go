// Package config 提供爬虫的统一配置
//
// 主 Config 由各功能区的子配置组成，每个子配置在独立文件中定义，
// 带有 Default…() 与 Validate()。配置可以从 JSON 文件加载，
// 再由 CRAWLER_ 前缀的环境变量与命令行参数依次覆盖。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Crawler.Concurrency = 64
//
//	// 从 JSON 加载
//	cfg, err := config.LoadFile("crawler.json")
//
//	// 环境变量覆盖
//	err = config.ApplyEnv(cfg, os.LookupEnv)
package config

import (
	"errors"
	"fmt"
)

// ErrNilConfig 配置为空
var ErrNilConfig = errors.New("config is nil")

// Config 爬虫完整配置
//
//   - Identity: 本端密钥
//   - Session: 单次会话的超时与帧上限
//   - Crawler: 并发、引导地址、重访节流与输出
//   - Metrics: Prometheus 指标与周期日志
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity"`

	// Session 会话配置
	Session SessionConfig `json:"session"`

	// Crawler 爬虫循环配置
	Crawler CrawlerConfig `json:"crawler"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity: DefaultIdentityConfig(),
		Session:  DefaultSessionConfig(),
		Crawler:  DefaultCrawlerConfig(),
		Metrics:  DefaultMetricsConfig(),
	}
}

// Validate 验证所有子配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if err := c.Identity.Validate(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Crawler.Validate(); err != nil {
		return fmt.Errorf("crawler: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
