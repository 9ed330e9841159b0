package crypto

import (
	"crypto/ed25519"
	"crypto/subtle"
	"fmt"
	"io"
)

// Ed25519 密钥常量
const (
	Ed25519PrivateKeySize = ed25519.PrivateKeySize
	Ed25519PublicKeySize  = ed25519.PublicKeySize
	Ed25519SignatureSize  = ed25519.SignatureSize
	Ed25519SeedSize       = ed25519.SeedSize
)

// Ed25519PublicKey Ed25519 公钥
type Ed25519PublicKey struct {
	k ed25519.PublicKey
}

// Raw 返回 32 字节公钥
func (k *Ed25519PublicKey) Raw() ([]byte, error) {
	return append([]byte(nil), k.k...), nil
}

// Type 返回密钥类型
func (k *Ed25519PublicKey) Type() KeyType {
	return KeyTypeEd25519
}

// Equals 常量时间比较
func (k *Ed25519PublicKey) Equals(other Key) bool {
	ek, ok := other.(*Ed25519PublicKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return subtle.ConstantTimeCompare(k.k, ek.k) == 1
}

// Verify 验证签名（对原始数据签名，不预先哈希）
func (k *Ed25519PublicKey) Verify(data, sig []byte) (bool, error) {
	if len(sig) != Ed25519SignatureSize {
		return false, nil
	}
	return ed25519.Verify(k.k, data, sig), nil
}

// Ed25519PrivateKey Ed25519 私钥
type Ed25519PrivateKey struct {
	k ed25519.PrivateKey
}

// Raw 返回 64 字节私钥（种子 + 公钥）
func (k *Ed25519PrivateKey) Raw() ([]byte, error) {
	return append([]byte(nil), k.k...), nil
}

// Type 返回密钥类型
func (k *Ed25519PrivateKey) Type() KeyType {
	return KeyTypeEd25519
}

// Equals 常量时间比较
func (k *Ed25519PrivateKey) Equals(other Key) bool {
	ek, ok := other.(*Ed25519PrivateKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return subtle.ConstantTimeCompare(k.k, ek.k) == 1
}

// GetPublic 返回对应的公钥
func (k *Ed25519PrivateKey) GetPublic() PublicKey {
	pub := k.k.Public().(ed25519.PublicKey) //nolint:errcheck // ed25519.PrivateKey.Public 总是返回 ed25519.PublicKey
	return &Ed25519PublicKey{k: pub}
}

// Sign 签名
func (k *Ed25519PrivateKey) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(k.k, data), nil
}

// GenerateEd25519Key 生成 Ed25519 密钥对
func GenerateEd25519Key(src io.Reader) (PrivateKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(src)
	if err != nil {
		return nil, nil, err
	}
	return &Ed25519PrivateKey{k: priv}, &Ed25519PublicKey{k: pub}, nil
}

// UnmarshalEd25519PublicKey 从 32 字节构造公钥
func UnmarshalEd25519PublicKey(data []byte) (PublicKey, error) {
	if len(data) != Ed25519PublicKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, Ed25519PublicKeySize, len(data))
	}
	return &Ed25519PublicKey{k: append(ed25519.PublicKey(nil), data...)}, nil
}

// UnmarshalEd25519PrivateKey 构造私钥
//
// 接受 64 字节（种子 + 公钥）、32 字节种子，以及旧版 libp2p 的 96 字节格式
// （末尾重复一份公钥）。
func UnmarshalEd25519PrivateKey(data []byte) (PrivateKey, error) {
	switch len(data) {
	case Ed25519PrivateKeySize + Ed25519PublicKeySize:
		redundant := data[Ed25519PrivateKeySize:]
		pk := data[Ed25519PrivateKeySize-Ed25519PublicKeySize : Ed25519PrivateKeySize]
		if subtle.ConstantTimeCompare(pk, redundant) == 0 {
			return nil, fmt.Errorf("%w: redundant public key mismatch", ErrInvalidPrivateKey)
		}
		return &Ed25519PrivateKey{k: append(ed25519.PrivateKey(nil), data[:Ed25519PrivateKeySize]...)}, nil
	case Ed25519PrivateKeySize:
		return &Ed25519PrivateKey{k: append(ed25519.PrivateKey(nil), data...)}, nil
	case Ed25519SeedSize:
		return &Ed25519PrivateKey{k: ed25519.NewKeyFromSeed(data)}, nil
	default:
		return nil, fmt.Errorf("%w: ed25519 private key of %d bytes", ErrInvalidKeySize, len(data))
	}
}
