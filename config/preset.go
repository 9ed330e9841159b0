package config

import (
	"fmt"
	"time"
)

// ApplyPreset 应用预设
//
// 支持的预设：
//   - "default": 不做修改
//   - "aggressive": 高并发、短预算，适合首次全网扫描
//   - "gentle": 低并发、长间隔，适合长期运行的监控
func ApplyPreset(cfg *Config, name string) error {
	if cfg == nil {
		return ErrNilConfig
	}
	switch name {
	case "", "default":
		return nil
	case "aggressive":
		cfg.Crawler.Concurrency = 256
		cfg.Crawler.RecheckAfter = Duration(10 * time.Minute)
		cfg.Session.ConnectTimeout = Duration(5 * time.Second)
		cfg.Session.SessionTimeout = Duration(30 * time.Second)
		cfg.Session.IdentifyTimeout = Duration(10 * time.Second)
		cfg.Session.KadTimeout = Duration(10 * time.Second)
	case "gentle":
		cfg.Crawler.Concurrency = 8
		cfg.Crawler.RecheckAfter = Duration(2 * time.Hour)
	default:
		return fmt.Errorf("unknown preset: %s", name)
	}
	return nil
}
