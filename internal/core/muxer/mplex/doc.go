// Package mplex 实现 /mplex/6.7.0 流多路复用
//
// # 帧格式
//
//	varint(streamID<<3 | flag) varint(len) payload
//
// flag 取值：
//
//	0 NewStream        1 MessageReceiver   2 MessageInitiator
//	3 CloseReceiver    4 CloseInitiator    5 ResetReceiver
//	6 ResetInitiator
//
// Initiator 系列由打开流的一方发送，Receiver 系列由另一方发送，因此流表以
// (id, 是否本端发起) 为键，双方的 id 空间互不冲突。
//
// # 使用
//
//	m := mplex.New()
//	m.ReceiveStreams(responder)          // 对端打开的流
//	go m.Serve(reader)                   // 单一读协程按序分发入站帧
//	go pump(m.Start(), conn)             // 出站帧
//	info, err := mplex.NewStream(ctx, m, identifyHandler)
//
// 同一个流的帧严格按到达顺序投递；不同流互不阻塞。CloseWrite 只关闭本端写方向，
// 对端的数据仍会被读到，直到对端也关闭。
package mplex
