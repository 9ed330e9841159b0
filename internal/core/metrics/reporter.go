package metrics

import (
	"github.com/dep2p/go-crawler/internal/core/session"
)

// Reporter 提供记录和检索爬虫指标的方法
type Reporter interface {
	// ReportSession 记录一次产生摘要的会话
	ReportSession(*session.PeerSummary)

	// ReportBootstrapFailure 记录一次引导失败
	ReportBootstrapFailure(error)

	// ReportDiscovered 记录 kad 返回的地址数
	ReportDiscovered(n int)

	// Stats 获取累计统计
	Stats() Stats
}

// 确保 Collector 实现 Reporter 接口
var _ Reporter = (*Collector)(nil)
