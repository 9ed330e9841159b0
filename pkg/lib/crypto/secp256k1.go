package crypto

import (
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/minio/sha256-simd"
)

// Secp256k1 密钥常量
const (
	Secp256k1PrivateKeySize = secp256k1.PrivKeyBytesLen
	Secp256k1PublicKeySize  = secp256k1.PubKeyBytesLenCompressed
)

// Secp256k1PublicKey Secp256k1 公钥
type Secp256k1PublicKey struct {
	k *secp256k1.PublicKey
}

// Raw 返回 33 字节压缩公钥
func (k *Secp256k1PublicKey) Raw() ([]byte, error) {
	return k.k.SerializeCompressed(), nil
}

// Type 返回密钥类型
func (k *Secp256k1PublicKey) Type() KeyType {
	return KeyTypeSecp256k1
}

// Equals 比较曲线点
func (k *Secp256k1PublicKey) Equals(other Key) bool {
	sk, ok := other.(*Secp256k1PublicKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return k.k.IsEqual(sk.k)
}

// Verify 验证 sha256(data) 上的 DER 签名
func (k *Secp256k1PublicKey) Verify(data, sig []byte) (bool, error) {
	s, err := secpecdsa.ParseDERSignature(sig)
	if err != nil {
		return false, nil
	}
	hash := sha256.Sum256(data)
	return s.Verify(hash[:], k.k), nil
}

// Secp256k1PrivateKey Secp256k1 私钥
type Secp256k1PrivateKey struct {
	k *secp256k1.PrivateKey
}

// Raw 返回 32 字节标量
func (k *Secp256k1PrivateKey) Raw() ([]byte, error) {
	return k.k.Serialize(), nil
}

// Type 返回密钥类型
func (k *Secp256k1PrivateKey) Type() KeyType {
	return KeyTypeSecp256k1
}

// Equals 常量时间比较
func (k *Secp256k1PrivateKey) Equals(other Key) bool {
	return KeyEqual(k, other)
}

// GetPublic 返回对应的公钥
func (k *Secp256k1PrivateKey) GetPublic() PublicKey {
	return &Secp256k1PublicKey{k: k.k.PubKey()}
}

// Sign 对 sha256(data) 签名，返回 DER 编码
func (k *Secp256k1PrivateKey) Sign(data []byte) ([]byte, error) {
	hash := sha256.Sum256(data)
	return secpecdsa.Sign(k.k, hash[:]).Serialize(), nil
}

// GenerateSecp256k1Key 生成 Secp256k1 密钥对
//
// 从 src 读取 32 字节作为标量，超出曲线阶或为零时重读。
func GenerateSecp256k1Key(src io.Reader) (PrivateKey, PublicKey, error) {
	var seed [Secp256k1PrivateKeySize]byte
	for {
		if _, err := io.ReadFull(src, seed[:]); err != nil {
			return nil, nil, err
		}
		var scalar secp256k1.ModNScalar
		if overflow := scalar.SetBytes(&seed); overflow == 0 && !scalar.IsZero() {
			priv := secp256k1.NewPrivateKey(&scalar)
			return &Secp256k1PrivateKey{k: priv}, &Secp256k1PublicKey{k: priv.PubKey()}, nil
		}
	}
}

// UnmarshalSecp256k1PublicKey 解析压缩或未压缩公钥
func UnmarshalSecp256k1PublicKey(data []byte) (PublicKey, error) {
	k, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return &Secp256k1PublicKey{k: k}, nil
}

// UnmarshalSecp256k1PrivateKey 从 32 字节标量构造私钥
func UnmarshalSecp256k1PrivateKey(data []byte) (PrivateKey, error) {
	if len(data) != Secp256k1PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, Secp256k1PrivateKeySize, len(data))
	}
	return &Secp256k1PrivateKey{k: secp256k1.PrivKeyFromBytes(data)}, nil
}
