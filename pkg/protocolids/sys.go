package protocolids

import "github.com/dep2p/go-crawler/pkg/types"

// ============================================================================
// 协商与连接升级
// ============================================================================

// Multistream multistream-select 协商协议头
const Multistream types.ProtocolID = "/multistream/1.0.0"

// Secio secio 加密通道
const Secio types.ProtocolID = "/secio/1.0.0"

// Mplex mplex 流多路复用
const Mplex types.ProtocolID = "/mplex/6.7.0"

// ============================================================================
// 子协议
// ============================================================================

// Identify 身份识别协议
const Identify types.ProtocolID = "/ipfs/id/1.0.0"

// Kad Kademlia DHT 协议（本端仅发起 FIND_NODE）
const Kad types.ProtocolID = "/ipfs/kad/1.0.0"

// Ping Ping 协议（本端仅应答）
const Ping types.ProtocolID = "/ipfs/ping/1.0.0"

// ProtocolVersion Identify 中宣告的协议族版本
const ProtocolVersion = "/substrate/1.0"

// Advertised 本端 Identify 中宣告支持的协议
func Advertised() []types.ProtocolID {
	return []types.ProtocolID{Ping, Identify, Kad}
}
