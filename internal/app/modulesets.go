// Package app 提供模块集合清单
//
// modulesets.go 集中维护"哪些模块属于哪一层"，是 Bootstrap 组装的唯一模块来源。
package app

import (
	"go.uber.org/fx"

	internalconfig "github.com/dep2p/go-crawler/internal/config"
	"github.com/dep2p/go-crawler/internal/core/identity"
	"github.com/dep2p/go-crawler/internal/core/metrics"
	"github.com/dep2p/go-crawler/internal/crawler"
)

// ============================================================================
//                              模块集合
// ============================================================================

// FoundationModules 基础层：统一配置拆分与本端身份
func FoundationModules() fx.Option {
	return fx.Options(
		internalconfig.Module(),
		identity.Module(),
	)
}

// MonitoringModules 监控层：统计、周期日志与可选的 /metrics 端点
//
// crawler 依赖这里提供的 Reporter，因此始终加载；HTTP 端点由 MetricsConfig.Enabled 控制。
func MonitoringModules() fx.Option {
	return metrics.Module
}

// CrawlModules 爬取层：会话拨号器、发现队列、报告输出与爬虫主循环
func CrawlModules() fx.Option {
	return crawler.Module()
}

// Modules 全部模块，按层次顺序
func Modules() fx.Option {
	return fx.Options(
		FoundationModules(),
		MonitoringModules(),
		CrawlModules(),
	)
}
