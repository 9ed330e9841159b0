// Package crawler 是一个 libp2p 网络爬虫
//
// 爬虫从引导地址出发，对每个 TCP 地址建立一次短会话：
// multistream-select 协商 secio，在加密通道上协商 mplex，
// 然后并行请求 identify 与 Kademlia FIND_NODE，同时应答对端打开的标准协议流。
// 会话结束后产出一条节点记录，FIND_NODE 返回的地址回流到发现队列继续爬取。
//
// # 快速开始
//
//	crawler -bootnodes /dns4/boot.example.org/tcp/30333/p2p/12D3KooW... -output peers.jsonl
//
// 配置优先级：命令行参数 > CRAWLER_* 环境变量 > JSON 配置文件 > 预设 > 默认值。
//
// # 包结构
//
//   - config: 用户配置（JSON、环境变量、预设）
//   - internal/core: 协议栈（framing、multistream、secio、mplex、identify、kad、会话编排）
//   - internal/crawler: 发现队列、公网过滤、报告输出与爬虫主循环
//   - internal/app: fx 模块组装与生命周期
//   - cmd/crawler: 命令行入口
package crawler
