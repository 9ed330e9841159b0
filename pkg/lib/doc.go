// Package lib 包含基础设施工具库
//
// 本目录包含与爬虫流程无关的通用工具库：
//
//   - crypto: libp2p 密钥编码、签名与 PeerID
//   - multiaddr: 多地址编解码
//   - proto: 线上 protobuf 消息（密钥、identify、DHT、secio）
//
// # 使用示例
//
//	import (
//	    "github.com/dep2p/go-crawler/pkg/lib/crypto"
//	    "github.com/dep2p/go-crawler/pkg/lib/multiaddr"
//	)
package lib
