package main

import (
	"flag"
	"time"

	"github.com/dep2p/go-crawler/config"
)

// cliFlags 命令行参数
//
// 命令行参数用于运行时覆盖；长期运行的配置应写在 JSON 配置文件里。
type cliFlags struct {
	// ─────────────────────────────────────────────────────────────────────
	// 配置来源
	// ─────────────────────────────────────────────────────────────────────
	configFile string
	preset     string

	// ─────────────────────────────────────────────────────────────────────
	// 身份
	// ─────────────────────────────────────────────────────────────────────
	keyFile string
	keyType string

	// ─────────────────────────────────────────────────────────────────────
	// 爬取参数
	// ─────────────────────────────────────────────────────────────────────
	bootnodes      string
	concurrency    int
	output         string
	sessionTimeout time.Duration
	connectTimeout time.Duration
	allowPrivate   bool

	// ─────────────────────────────────────────────────────────────────────
	// 监控与日志
	// ─────────────────────────────────────────────────────────────────────
	metricsAddr string
	logFile     string
	logLevel    string
	fxDebug     bool

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	printConfig bool
	showVersion bool
	showHelp    bool
}

func bindFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{}
	fs.StringVar(&f.configFile, "config", "", "JSON 配置文件路径")
	fs.StringVar(&f.preset, "preset", "default", "预设配置 (default/aggressive/gentle)")

	fs.StringVar(&f.keyFile, "key", "", "身份密钥文件路径（为空时使用临时身份）")
	fs.StringVar(&f.keyType, "key-type", "", "密钥类型 (Ed25519/Secp256k1/ECDSA)")

	fs.StringVar(&f.bootnodes, "bootnodes", "", "引导地址，逗号分隔")
	fs.IntVar(&f.concurrency, "concurrency", 0, "同时进行的会话数")
	fs.StringVar(&f.output, "output", "", "报告输出文件（- 表示标准输出）")
	fs.DurationVar(&f.sessionTimeout, "session-timeout", 0, "单个会话总预算")
	fs.DurationVar(&f.connectTimeout, "connect-timeout", 0, "TCP 连接超时")
	fs.BoolVar(&f.allowPrivate, "allow-private", false, "也爬取私网与回环地址")

	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Prometheus 指标监听地址（设置即开启）")
	fs.StringVar(&f.logFile, "log", "", "日志文件路径")
	fs.StringVar(&f.logLevel, "log-level", "", "日志级别，如 info 或 crawler=debug,secio=warn")
	fs.BoolVar(&f.fxDebug, "fx-debug", false, "输出依赖注入装配日志")

	fs.BoolVar(&f.printConfig, "print-config", false, "输出合并后的配置并退出")
	fs.BoolVar(&f.showVersion, "version", false, "显示版本信息")
	fs.BoolVar(&f.showHelp, "help", false, "显示帮助信息")
	return f
}

// buildConfig 合并各来源的配置
//
// 优先级（从高到低）：
//  1. 命令行参数（仅显式设置的）
//  2. CRAWLER_* 环境变量
//  3. JSON 配置文件
//  4. 预设
//  5. 默认值
func buildConfig(fs *flag.FlagSet, f *cliFlags, lookup config.LookupFunc) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := config.ApplyPreset(cfg, f.preset); err != nil {
		return nil, err
	}
	if f.configFile != "" {
		if err := config.MergeFile(cfg, f.configFile); err != nil {
			return nil, err
		}
	}
	if lookup != nil {
		if err := config.ApplyEnv(cfg, lookup); err != nil {
			return nil, err
		}
	}

	set := setFlags(fs)
	if set["key"] {
		cfg.Identity = cfg.Identity.WithKeyFile(f.keyFile)
	}
	if set["key-type"] {
		cfg.Identity = cfg.Identity.WithKeyType(f.keyType)
	}
	if set["bootnodes"] {
		cfg.Crawler.Bootnodes = config.SplitAndTrim(f.bootnodes, ",")
	}
	if set["concurrency"] {
		cfg.Crawler.Concurrency = f.concurrency
	}
	if set["output"] {
		cfg.Crawler.Output = f.output
	}
	if set["session-timeout"] {
		cfg.Session.SessionTimeout = config.Duration(f.sessionTimeout)
	}
	if set["connect-timeout"] {
		cfg.Session.ConnectTimeout = config.Duration(f.connectTimeout)
	}
	if set["allow-private"] {
		cfg.Crawler.PublicOnly = !f.allowPrivate
	}
	if set["metrics-addr"] {
		cfg.Metrics.ListenAddr = f.metricsAddr
		cfg.Metrics.Enabled = f.metricsAddr != ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setFlags 返回显式设置过的参数名
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})
	return set
}
