// Package proto 定义爬虫使用的 libp2p 网络协议消息（wire format）
//
// # 子包
//
//   - key:      PublicKey / PrivateKey 序列化格式
//   - identify: /ipfs/id/1.0.0 Identify 消息
//   - dht:      /ipfs/kad/1.0.0 Message / Peer
//   - secio:    /secio/1.0.0 Propose / Exchange
//
// 消息按 protobuf 线格式手工编解码（google.golang.org/protobuf/encoding/protowire），
// 未知字段在解码时跳过。
package proto
