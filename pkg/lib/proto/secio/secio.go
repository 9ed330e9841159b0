// Package secio 定义 /secio/1.0.0 握手消息
package secio

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-crawler/pkg/lib/proto"
)

// Propose 握手第一步：随机数、身份公钥与候选算法
type Propose struct {
	Rand []byte
	// Pubkey 序列化的 key.PublicKey
	Pubkey    []byte
	Exchanges string
	Ciphers   string
	Hashes    string
}

// Marshal 编码
func (m *Propose) Marshal() []byte {
	var b []byte
	b = proto.AppendBytes(b, 1, m.Rand)
	b = proto.AppendBytes(b, 2, m.Pubkey)
	b = proto.AppendString(b, 3, m.Exchanges)
	b = proto.AppendString(b, 4, m.Ciphers)
	b = proto.AppendString(b, 5, m.Hashes)
	return b
}

// Unmarshal 解码
func (m *Propose) Unmarshal(b []byte) error {
	*m = Propose{}
	return proto.Walk(b, func(f proto.Field) error {
		if f.Num < 1 || f.Num > 5 {
			return nil
		}
		if err := f.Expect(protowire.BytesType); err != nil {
			return err
		}
		switch f.Num {
		case 1:
			m.Rand = f.Clone()
		case 2:
			m.Pubkey = f.Clone()
		case 3:
			m.Exchanges = string(f.Bytes)
		case 4:
			m.Ciphers = string(f.Bytes)
		case 5:
			m.Hashes = string(f.Bytes)
		}
		return nil
	})
}

// Exchange 握手第二步：临时公钥与签名
type Exchange struct {
	Epubkey   []byte
	Signature []byte
}

// Marshal 编码
func (m *Exchange) Marshal() []byte {
	var b []byte
	b = proto.AppendBytes(b, 1, m.Epubkey)
	b = proto.AppendBytes(b, 2, m.Signature)
	return b
}

// Unmarshal 解码
func (m *Exchange) Unmarshal(b []byte) error {
	*m = Exchange{}
	return proto.Walk(b, func(f proto.Field) error {
		switch f.Num {
		case 1, 2:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			if f.Num == 1 {
				m.Epubkey = f.Clone()
			} else {
				m.Signature = f.Clone()
			}
		}
		return nil
	})
}
