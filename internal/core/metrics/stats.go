package metrics

// Stats 指标快照
//
// Stats 表示某个时间点的累计计数，供日志与测试读取，
// 不需要经过 Prometheus 的文本格式。
type Stats struct {
	Success           int64   // 两个协议都有数据的会话
	Partial           int64   // 只有一个协议有数据的会话
	Failed            int64   // 引导完成但没有数据的会话
	BootstrapFailures int64   // 引导失败（无摘要）
	Discovered        int64   // kad 返回的地址总数
	Rate              float64 // 最近 60 秒的处理速率（节点/秒）
}

// Processed 产生摘要的会话总数
func (s Stats) Processed() int64 {
	return s.Success + s.Partial + s.Failed
}
