package config

import (
	"fmt"
	"strconv"
	"strings"
)

// 环境变量（均使用 CRAWLER_ 前缀）
const (
	// EnvPrefix 环境变量前缀
	EnvPrefix = "CRAWLER_"

	// EnvKeyFile 身份密钥文件
	EnvKeyFile = "KEY_FILE"

	// EnvKeyType 密钥类型
	EnvKeyType = "KEY_TYPE"

	// EnvBootnodes 引导地址（逗号分隔）
	EnvBootnodes = "BOOTNODES"

	// EnvConcurrency 并发会话数
	EnvConcurrency = "CONCURRENCY"

	// EnvSessionTimeout 会话总预算
	EnvSessionTimeout = "SESSION_TIMEOUT"

	// EnvConnectTimeout TCP 连接超时
	EnvConnectTimeout = "CONNECT_TIMEOUT"

	// EnvOutput 报告输出路径
	EnvOutput = "OUTPUT"

	// EnvMetricsAddr 指标端点地址；设置即开启
	EnvMetricsAddr = "METRICS_ADDR"
)

// LookupFunc 环境变量查找函数，os.LookupEnv 满足此签名
type LookupFunc func(key string) (string, bool)

// ApplyEnv 用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，低于命令行参数。无法解析的值返回错误。
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if cfg == nil {
		return ErrNilConfig
	}
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvKeyFile); ok {
		cfg.Identity.KeyFile = v
	}
	if v, ok := get(EnvKeyType); ok {
		cfg.Identity.KeyType = v
	}
	if v, ok := get(EnvBootnodes); ok {
		cfg.Crawler.Bootnodes = SplitAndTrim(v, ",")
	}
	if v, ok := get(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvConcurrency, err)
		}
		cfg.Crawler.Concurrency = n
	}
	if v, ok := get(EnvSessionTimeout); ok {
		if err := cfg.Session.SessionTimeout.Set(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvSessionTimeout, err)
		}
	}
	if v, ok := get(EnvConnectTimeout); ok {
		if err := cfg.Session.ConnectTimeout.Set(v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, EnvConnectTimeout, err)
		}
	}
	if v, ok := get(EnvOutput); ok {
		cfg.Crawler.Output = v
	}
	if v, ok := get(EnvMetricsAddr); ok {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddr = v
	}
	return nil
}

// SplitAndTrim 分割字符串并去除空白与空项
func SplitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
