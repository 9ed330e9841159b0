// Package protocol 提供子协议处理器共用的流操作
//
// 子包：
//
//   - identify:  /ipfs/id/1.0.0，读取对端自描述
//   - kad:       /ipfs/kad/1.0.0，发送 FIND_NODE 并解析最近节点
//   - responder: 应答对端打开的 ping / identify 流
//
// 出站处理器的共同流程：写出 multistream 头，按 varint 帧读取协商回复，协商完成后
// 在独立的超时内读取数据；超时通过重置流打断阻塞读，并映射为 types.ErrDataTimeout。
package protocol
