// Package identify 定义 /ipfs/id/1.0.0 的 Identify 消息
package identify

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-crawler/pkg/lib/proto"
)

// 字段号
const (
	fieldPublicKey       = 1
	fieldListenAddrs     = 2
	fieldProtocols       = 3
	fieldObservedAddr    = 4
	fieldProtocolVersion = 5
	fieldAgentVersion    = 6
)

// Identify 节点自描述消息
type Identify struct {
	// PublicKey 序列化的 key.PublicKey
	PublicKey []byte
	// ListenAddrs 二进制 multiaddr
	ListenAddrs [][]byte
	Protocols   []string
	// ObservedAddr 对端观察到的本端地址
	ObservedAddr    []byte
	ProtocolVersion string
	AgentVersion    string
}

// Marshal 编码
func (m *Identify) Marshal() []byte {
	var b []byte
	b = proto.AppendBytes(b, fieldPublicKey, m.PublicKey)
	for _, a := range m.ListenAddrs {
		b = protowire.AppendTag(b, fieldListenAddrs, protowire.BytesType)
		b = protowire.AppendBytes(b, a)
	}
	for _, p := range m.Protocols {
		b = protowire.AppendTag(b, fieldProtocols, protowire.BytesType)
		b = protowire.AppendString(b, p)
	}
	b = proto.AppendBytes(b, fieldObservedAddr, m.ObservedAddr)
	b = proto.AppendString(b, fieldProtocolVersion, m.ProtocolVersion)
	b = proto.AppendString(b, fieldAgentVersion, m.AgentVersion)
	return b
}

// Unmarshal 解码，未知字段（如 signedPeerRecord）被忽略
func (m *Identify) Unmarshal(b []byte) error {
	*m = Identify{}
	return proto.Walk(b, func(f proto.Field) error {
		if f.Num < fieldPublicKey || f.Num > fieldAgentVersion {
			return nil
		}
		if err := f.Expect(protowire.BytesType); err != nil {
			return err
		}
		switch f.Num {
		case fieldPublicKey:
			m.PublicKey = f.Clone()
		case fieldListenAddrs:
			m.ListenAddrs = append(m.ListenAddrs, f.Clone())
		case fieldProtocols:
			m.Protocols = append(m.Protocols, string(f.Bytes))
		case fieldObservedAddr:
			m.ObservedAddr = f.Clone()
		case fieldProtocolVersion:
			m.ProtocolVersion = string(f.Bytes)
		case fieldAgentVersion:
			m.AgentVersion = string(f.Bytes)
		}
		return nil
	})
}
