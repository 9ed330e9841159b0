// Package metrics 提供爬虫的监控指标
//
// metrics 模块基于 prometheus/client_golang 提供：
//   - 会话结果统计（success/partial/failed）
//   - 引导失败原因统计（connect/unsupported_address/negotiation/handshake/...）
//   - 发现地址计数
//   - 连接时长与 kad 返回节点数直方图
//   - 最近 60 秒的处理速率
//   - 周期性"发现节点"日志
//
// # 快速开始
//
//	c := metrics.NewCollector(clock.New())
//
//	// 会话结束后
//	c.ReportSession(res.Summary)
//	c.ReportDiscovered(len(res.Discovered))
//
//	// 引导失败
//	c.ReportBootstrapFailure(err)
//
//	// 暴露给 Prometheus
//	http.Handle("/metrics", c.Handler())
//
// # 指标
//
//	crawler_sessions_total{outcome}           会话数
//	crawler_bootstrap_failures_total{reason}  引导失败数
//	crawler_discovered_addrs_total            kad 返回的地址数
//	crawler_connection_duration_seconds       连接时长
//	crawler_closest_peers                     每次会话 kad 返回的节点数
//	crawler_processed_rate                    最近 60 秒每秒处理的节点数
//
// 所有指标注册在 Collector 自己的 Registry 上，测试可以创建多个互不干扰的实例。
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module,
//	    fx.Invoke(func(r metrics.Reporter) { ... }),
//	)
//
// 配置开启时模块同时启动 HTTP 端点；无论是否开启，周期日志都会运行。
package metrics
