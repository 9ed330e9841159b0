// Package key 定义 libp2p 密钥序列化格式
//
//	message PublicKey  { required KeyType Type = 1; required bytes Data = 2; }
//	message PrivateKey { required KeyType Type = 1; required bytes Data = 2; }
package key

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-crawler/pkg/lib/proto"
)

// KeyType 密钥类型
type KeyType int32

const (
	KeyTypeRSA       KeyType = 0
	KeyTypeEd25519   KeyType = 1
	KeyTypeSecp256k1 KeyType = 2
	KeyTypeECDSA     KeyType = 3
)

// String 返回类型名称
func (t KeyType) String() string {
	switch t {
	case KeyTypeRSA:
		return "RSA"
	case KeyTypeEd25519:
		return "Ed25519"
	case KeyTypeSecp256k1:
		return "Secp256k1"
	case KeyTypeECDSA:
		return "ECDSA"
	default:
		return fmt.Sprintf("KeyType(%d)", int32(t))
	}
}

// PublicKey 序列化公钥
type PublicKey struct {
	Type KeyType
	Data []byte
}

// Marshal 编码
func (k *PublicKey) Marshal() []byte {
	return marshal(k.Type, k.Data)
}

// Unmarshal 解码
func (k *PublicKey) Unmarshal(b []byte) error {
	var err error
	k.Type, k.Data, err = unmarshal(b)
	return err
}

// PrivateKey 序列化私钥
type PrivateKey struct {
	Type KeyType
	Data []byte
}

// Marshal 编码
func (k *PrivateKey) Marshal() []byte {
	return marshal(k.Type, k.Data)
}

// Unmarshal 解码
func (k *PrivateKey) Unmarshal(b []byte) error {
	var err error
	k.Type, k.Data, err = unmarshal(b)
	return err
}

func marshal(t KeyType, data []byte) []byte {
	b := make([]byte, 0, len(data)+8)
	b = proto.AppendVarint(b, 1, uint64(t))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	return protowire.AppendBytes(b, data)
}

func unmarshal(b []byte) (KeyType, []byte, error) {
	var (
		t                KeyType
		data             []byte
		hasType, hasData bool
	)
	err := proto.Walk(b, func(f proto.Field) error {
		switch f.Num {
		case 1:
			if err := f.Expect(protowire.VarintType); err != nil {
				return err
			}
			t, hasType = KeyType(f.Varint), true
		case 2:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			data, hasData = f.Clone(), true
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	if !hasType || !hasData {
		return 0, nil, fmt.Errorf("%w: key missing required field", proto.ErrMalformed)
	}
	return t, data, nil
}
