// Package dht 定义 /ipfs/kad/1.0.0 的 Message 与 Peer
//
// 只编解码爬虫用到的字段：type、key、closerPeers、providerPeers、clusterLevelRaw。
// record 字段（3）按未知字段跳过。
package dht

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-crawler/pkg/lib/proto"
)

// MessageType 消息类型
type MessageType int32

const (
	MessagePutValue     MessageType = 0
	MessageGetValue     MessageType = 1
	MessageAddProvider  MessageType = 2
	MessageGetProviders MessageType = 3
	MessageFindNode     MessageType = 4
	MessagePing         MessageType = 5
)

// ConnectionType 发送方与 Peer 的连接状态
type ConnectionType int32

const (
	NotConnected  ConnectionType = 0
	Connected     ConnectionType = 1
	CanConnect    ConnectionType = 2
	CannotConnect ConnectionType = 3
)

// Peer 节点信息
type Peer struct {
	// ID PeerID 多重哈希字节
	ID []byte
	// Addrs 二进制 multiaddr
	Addrs      [][]byte
	Connection ConnectionType
}

// Marshal 编码
func (p *Peer) Marshal() []byte {
	var b []byte
	b = proto.AppendBytes(b, 1, p.ID)
	for _, a := range p.Addrs {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, a)
	}
	if p.Connection != NotConnected {
		b = proto.AppendVarint(b, 3, uint64(p.Connection))
	}
	return b
}

// Unmarshal 解码
func (p *Peer) Unmarshal(b []byte) error {
	*p = Peer{}
	return proto.Walk(b, func(f proto.Field) error {
		switch f.Num {
		case 1:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			p.ID = f.Clone()
		case 2:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			p.Addrs = append(p.Addrs, f.Clone())
		case 3:
			if err := f.Expect(protowire.VarintType); err != nil {
				return err
			}
			p.Connection = ConnectionType(f.Varint)
		}
		return nil
	})
}

// Message DHT 请求/响应
type Message struct {
	Type            MessageType
	ClusterLevelRaw int32
	Key             []byte
	CloserPeers     []Peer
	ProviderPeers   []Peer
}

// Marshal 编码
func (m *Message) Marshal() []byte {
	var b []byte
	b = proto.AppendVarint(b, 1, uint64(m.Type))
	b = proto.AppendBytes(b, 2, m.Key)
	b = appendPeers(b, 8, m.CloserPeers)
	b = appendPeers(b, 9, m.ProviderPeers)
	if m.ClusterLevelRaw != 0 {
		b = proto.AppendVarint(b, 10, uint64(m.ClusterLevelRaw))
	}
	return b
}

// Unmarshal 解码
func (m *Message) Unmarshal(b []byte) error {
	*m = Message{}
	return proto.Walk(b, func(f proto.Field) error {
		switch f.Num {
		case 1:
			if err := f.Expect(protowire.VarintType); err != nil {
				return err
			}
			m.Type = MessageType(f.Varint)
		case 2:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			m.Key = f.Clone()
		case 8, 9:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			var p Peer
			if err := p.Unmarshal(f.Bytes); err != nil {
				return err
			}
			if f.Num == 8 {
				m.CloserPeers = append(m.CloserPeers, p)
			} else {
				m.ProviderPeers = append(m.ProviderPeers, p)
			}
		case 10:
			if err := f.Expect(protowire.VarintType); err != nil {
				return err
			}
			m.ClusterLevelRaw = int32(f.Varint)
		}
		return nil
	})
}

func appendPeers(b []byte, num protowire.Number, peers []Peer) []byte {
	for i := range peers {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, peers[i].Marshal())
	}
	return b
}
