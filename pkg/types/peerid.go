package types

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-varint"
)

// 多重哈希编码
const (
	// MhIdentity identity 多重哈希（公钥本身）
	MhIdentity uint64 = 0x00

	// MhSha2_256 sha2-256 多重哈希
	MhSha2_256 uint64 = 0x12

	// MaxInlineKeyLength 编码后公钥不超过此长度时直接内联
	MaxInlineKeyLength = 42
)

// PeerID 节点标识：公钥的多重哈希（原始字节，以字符串承载便于作为 map 键）
//
// 文本形式为 base58btc，例如 12D3KooW...、Qm...、16Uiu2...
type PeerID string

// String 返回 base58btc 文本形式
func (id PeerID) String() string {
	return base58.Encode([]byte(id))
}

// ShortString 返回日志用的短形式
func (id PeerID) ShortString() string {
	s := id.String()
	if len(s) <= 10 {
		return s
	}
	return s[:2] + "*" + s[len(s)-6:]
}

// Bytes 返回多重哈希字节
func (id PeerID) Bytes() []byte {
	return []byte(id)
}

// IsEmpty 是否为空
func (id PeerID) IsEmpty() bool {
	return id == ""
}

// Validate 检查多重哈希结构
func (id PeerID) Validate() error {
	if id == "" {
		return ErrEmptyPeerID
	}
	_, _, err := decodeMultihash([]byte(id))
	return err
}

// MatchesPublicKey 检查 id 是否为给定编码公钥的多重哈希
//
// 只比较 identity 形式；sha2-256 形式由调用方提供摘要函数。
func (id PeerID) MatchesPublicKey(encoded []byte, sum256 func([]byte) [32]byte) bool {
	code, digest, err := decodeMultihash([]byte(id))
	if err != nil {
		return false
	}
	switch code {
	case MhIdentity:
		return bytes.Equal(digest, encoded)
	case MhSha2_256:
		sum := sum256(encoded)
		return bytes.Equal(digest, sum[:])
	default:
		return false
	}
}

// IDFromBytes 从多重哈希字节构造 PeerID
func IDFromBytes(b []byte) (PeerID, error) {
	if _, _, err := decodeMultihash(b); err != nil {
		return "", err
	}
	return PeerID(b), nil
}

// Decode 解析 base58btc 文本形式
func Decode(s string) (PeerID, error) {
	if s == "" {
		return "", ErrEmptyPeerID
	}
	b, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	return IDFromBytes(b)
}

// EncodeMultihash 构造 code+length+digest 形式的多重哈希
func EncodeMultihash(code uint64, digest []byte) []byte {
	out := make([]byte, 0, varint.UvarintSize(code)+varint.UvarintSize(uint64(len(digest)))+len(digest))
	out = append(out, varint.ToUvarint(code)...)
	out = append(out, varint.ToUvarint(uint64(len(digest)))...)
	return append(out, digest...)
}

func decodeMultihash(b []byte) (uint64, []byte, error) {
	code, n, err := varint.FromUvarint(b)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: multihash code: %v", ErrInvalidPeerID, err)
	}
	b = b[n:]
	length, n, err := varint.FromUvarint(b)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: multihash length: %v", ErrInvalidPeerID, err)
	}
	b = b[n:]
	if uint64(len(b)) != length {
		return 0, nil, fmt.Errorf("%w: multihash length %d, have %d bytes", ErrInvalidPeerID, length, len(b))
	}
	switch code {
	case MhIdentity:
		if length > MaxInlineKeyLength {
			return 0, nil, fmt.Errorf("%w: identity multihash too long", ErrInvalidPeerID)
		}
	case MhSha2_256:
		if length != 32 {
			return 0, nil, fmt.Errorf("%w: sha2-256 digest length %d", ErrInvalidPeerID, length)
		}
	default:
		return 0, nil, fmt.Errorf("%w: unsupported multihash code 0x%x", ErrInvalidPeerID, code)
	}
	return code, b, nil
}
