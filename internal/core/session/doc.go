// Package session 编排一次拨号的完整流程
//
// 一个会话对应一条连接：
//
//	TCP 连接 → multistream(/secio/1.0.0) → secio 握手与 nonce 校验
//	→ multistream(/mplex/6.7.0) → mplex 启动并注册入站应答器
//	→ 并发执行 identify 与 kad FIND_NODE → 关闭连接
//
// 引导阶段（连接、帧、secio/mplex 协商、握手）失败时会话直接返回错误，不产生摘要；
// 之后各协议处理器的失败只意味着该协议没有数据。整个会话受 SessionTimeout 约束，
// 超时后关闭连接并返回已经积累的 PeerSummary。
//
// 每个终态恰好输出一行日志。
package session
