// Package crawler 驱动整个爬取循环
//
// 循环从发现队列取地址，以受限的并发对每个地址执行一次会话：
//
//	queue.Listen ──▶ semaphore ──▶ session.Dialer.Dial ──┬──▶ metrics
//	     ▲                                               ├──▶ report.Sink
//	     └────────────── filter.PublicOnly ◀─────────────┘   (Discovered)
//
// 引导失败只计入指标；引导成功但没有任何协议数据的会话不输出报告。
// 会话之间除了队列不共享任何状态。
package crawler
