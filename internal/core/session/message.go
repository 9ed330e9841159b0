package session

import (
	"github.com/dep2p/go-crawler/internal/core/protocol/identify"
	"github.com/dep2p/go-crawler/internal/core/protocol/kad"
)

// ProtocolMessage 协议处理器的输出
//
// 封闭联合：只有 IdentifyMessage 与 ClosestPeersMessage 两种变体，
// 包外无法新增实现。
type ProtocolMessage interface {
	protocolMessage()
}

// IdentifyMessage identify 的结果
type IdentifyMessage struct {
	Info *identify.Info
}

// ClosestPeersMessage kad FIND_NODE 的结果
type ClosestPeersMessage struct {
	Result *kad.Result
}

func (IdentifyMessage) protocolMessage()     {}
func (ClosestPeersMessage) protocolMessage() {}
