package config

import (
	"errors"
	"time"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否开启 Prometheus HTTP 端点
	Enabled bool `json:"enabled"`

	// ListenAddr HTTP 端点监听地址
	ListenAddr string `json:"listen_addr"`

	// Path 指标路径
	Path string `json:"path"`

	// ReportInterval 周期性输出"发现节点数"日志的间隔
	ReportInterval Duration `json:"report_interval"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:        false,
		ListenAddr:     "127.0.0.1:9615",
		Path:           "/metrics",
		ReportInterval: Duration(60 * time.Second),
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.ListenAddr == "" {
		return errors.New("listen address required when metrics enabled")
	}
	if c.ReportInterval <= 0 {
		return errors.New("report interval must be positive")
	}
	return nil
}
