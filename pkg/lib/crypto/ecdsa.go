package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"io"

	"github.com/minio/sha256-simd"
)

// ECDSAPublicKey ECDSA 公钥（P-256/P-384/P-521）
type ECDSAPublicKey struct {
	k *ecdsa.PublicKey
}

// Raw 返回 PKIX DER 编码
func (k *ECDSAPublicKey) Raw() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(k.k)
}

// Type 返回密钥类型
func (k *ECDSAPublicKey) Type() KeyType {
	return KeyTypeECDSA
}

// Equals 比较曲线点
func (k *ECDSAPublicKey) Equals(other Key) bool {
	ek, ok := other.(*ECDSAPublicKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return k.k.Equal(ek.k)
}

// Verify 验证 sha256(data) 上的 ASN.1 签名
func (k *ECDSAPublicKey) Verify(data, sig []byte) (bool, error) {
	hash := sha256.Sum256(data)
	return ecdsa.VerifyASN1(k.k, hash[:], sig), nil
}

// ECDSAPrivateKey ECDSA 私钥
type ECDSAPrivateKey struct {
	k *ecdsa.PrivateKey
}

// Raw 返回 SEC1 DER 编码
func (k *ECDSAPrivateKey) Raw() ([]byte, error) {
	return x509.MarshalECPrivateKey(k.k)
}

// Type 返回密钥类型
func (k *ECDSAPrivateKey) Type() KeyType {
	return KeyTypeECDSA
}

// Equals 比较私钥
func (k *ECDSAPrivateKey) Equals(other Key) bool {
	ek, ok := other.(*ECDSAPrivateKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return k.k.Equal(ek.k)
}

// GetPublic 返回对应的公钥
func (k *ECDSAPrivateKey) GetPublic() PublicKey {
	return &ECDSAPublicKey{k: &k.k.PublicKey}
}

// Sign 对 sha256(data) 签名，返回 ASN.1 编码
func (k *ECDSAPrivateKey) Sign(data []byte) ([]byte, error) {
	hash := sha256.Sum256(data)
	return ecdsa.SignASN1(rand.Reader, k.k, hash[:])
}

// GenerateECDSAKey 生成 P-256 密钥对
func GenerateECDSAKey(src io.Reader) (PrivateKey, PublicKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), src)
	if err != nil {
		return nil, nil, err
	}
	return &ECDSAPrivateKey{k: priv}, &ECDSAPublicKey{k: &priv.PublicKey}, nil
}

// UnmarshalECDSAPublicKey 解析 PKIX DER 公钥
func UnmarshalECDSAPublicKey(data []byte) (PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	ek, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ECDSA key", ErrInvalidPublicKey)
	}
	return &ECDSAPublicKey{k: ek}, nil
}

// UnmarshalECDSAPrivateKey 解析 SEC1 DER 私钥
func UnmarshalECDSAPrivateKey(data []byte) (PrivateKey, error) {
	priv, err := x509.ParseECPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return &ECDSAPrivateKey{k: priv}, nil
}
