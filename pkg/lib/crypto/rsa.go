package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"

	"github.com/minio/sha256-simd"
)

// RSA 密钥常量（位）
const (
	RSAMinKeySize     = 2048
	RSADefaultKeySize = 2048
	RSAMaxKeySize     = 8192
)

// RSAPublicKey RSA 公钥
type RSAPublicKey struct {
	k *rsa.PublicKey
}

// Raw 返回 PKIX DER 编码
func (k *RSAPublicKey) Raw() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(k.k)
}

// Type 返回密钥类型
func (k *RSAPublicKey) Type() KeyType {
	return KeyTypeRSA
}

// Equals 比较模数与指数
func (k *RSAPublicKey) Equals(other Key) bool {
	rk, ok := other.(*RSAPublicKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return k.k.Equal(rk.k)
}

// Verify 验证 PKCS#1 v1.5 + SHA-256 签名
func (k *RSAPublicKey) Verify(data, sig []byte) (bool, error) {
	hash := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(k.k, crypto.SHA256, hash[:], sig) == nil, nil
}

// RSAPrivateKey RSA 私钥
type RSAPrivateKey struct {
	k *rsa.PrivateKey
}

// Raw 返回 PKCS#1 DER 编码
func (k *RSAPrivateKey) Raw() ([]byte, error) {
	return x509.MarshalPKCS1PrivateKey(k.k), nil
}

// Type 返回密钥类型
func (k *RSAPrivateKey) Type() KeyType {
	return KeyTypeRSA
}

// Equals 比较私钥
func (k *RSAPrivateKey) Equals(other Key) bool {
	rk, ok := other.(*RSAPrivateKey)
	if !ok {
		return KeyEqual(k, other)
	}
	return k.k.Equal(rk.k)
}

// GetPublic 返回对应的公钥
func (k *RSAPrivateKey) GetPublic() PublicKey {
	return &RSAPublicKey{k: &k.k.PublicKey}
}

// Sign PKCS#1 v1.5 + SHA-256 签名
func (k *RSAPrivateKey) Sign(data []byte) ([]byte, error) {
	hash := sha256.Sum256(data)
	return rsa.SignPKCS1v15(rand.Reader, k.k, crypto.SHA256, hash[:])
}

// GenerateRSAKey 生成 RSA 密钥对
func GenerateRSAKey(bits int, src io.Reader) (PrivateKey, PublicKey, error) {
	if bits < RSAMinKeySize || bits > RSAMaxKeySize {
		return nil, nil, fmt.Errorf("%w: RSA key size %d outside [%d, %d]", ErrInvalidKeySize, bits, RSAMinKeySize, RSAMaxKeySize)
	}
	priv, err := rsa.GenerateKey(src, bits)
	if err != nil {
		return nil, nil, err
	}
	return &RSAPrivateKey{k: priv}, &RSAPublicKey{k: &priv.PublicKey}, nil
}

// UnmarshalRSAPublicKey 解析 PKIX DER 公钥
func UnmarshalRSAPublicKey(data []byte) (PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	rk, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPublicKey)
	}
	if rk.N.BitLen() < RSAMinKeySize {
		return nil, fmt.Errorf("%w: RSA key of %d bits", ErrInvalidPublicKey, rk.N.BitLen())
	}
	return &RSAPublicKey{k: rk}, nil
}

// UnmarshalRSAPrivateKey 解析 PKCS#1 DER 私钥
func UnmarshalRSAPrivateKey(data []byte) (PrivateKey, error) {
	priv, err := x509.ParsePKCS1PrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	if priv.N.BitLen() < RSAMinKeySize {
		return nil, fmt.Errorf("%w: RSA key of %d bits", ErrInvalidPrivateKey, priv.N.BitLen())
	}
	return &RSAPrivateKey{k: priv}, nil
}
