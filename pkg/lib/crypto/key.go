package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"strings"

	pb "github.com/dep2p/go-crawler/pkg/lib/proto/key"
)

// ============================================================================
//                              密钥类型定义
// ============================================================================

// KeyType 密钥类型，取值与线格式 KeyType 枚举一致
type KeyType = pb.KeyType

const (
	// KeyTypeRSA RSA 密钥
	KeyTypeRSA = pb.KeyTypeRSA
	// KeyTypeEd25519 Ed25519 密钥（默认）
	KeyTypeEd25519 = pb.KeyTypeEd25519
	// KeyTypeSecp256k1 Secp256k1 密钥（substrate/以太坊节点常用）
	KeyTypeSecp256k1 = pb.KeyTypeSecp256k1
	// KeyTypeECDSA ECDSA 密钥
	KeyTypeECDSA = pb.KeyTypeECDSA
)

// ParseKeyType 解析配置中的密钥类型名称（大小写不敏感）
func ParseKeyType(name string) (KeyType, error) {
	switch strings.ToLower(name) {
	case "ed25519", "":
		return KeyTypeEd25519, nil
	case "secp256k1":
		return KeyTypeSecp256k1, nil
	case "ecdsa":
		return KeyTypeECDSA, nil
	case "rsa":
		return KeyTypeRSA, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadKeyType, name)
	}
}

// ============================================================================
//                              密钥接口定义
// ============================================================================

// Key 基础密钥接口
type Key interface {
	// Raw 返回线格式中 Data 字段的字节
	Raw() ([]byte, error)

	// Type 返回密钥类型
	Type() KeyType

	// Equals 比较两个密钥是否相等
	Equals(Key) bool
}

// PublicKey 公钥接口
type PublicKey interface {
	Key

	// Verify 验证 data 上的签名；签名不合法时返回 false 而不是错误
	Verify(data, sig []byte) (bool, error)
}

// PrivateKey 私钥接口
type PrivateKey interface {
	Key

	// Sign 对 data 签名
	Sign(data []byte) ([]byte, error)

	// GetPublic 返回对应的公钥
	GetPublic() PublicKey
}

// ============================================================================
//                              密钥工厂函数
// ============================================================================

// GenerateKeyPair 使用 crypto/rand 生成密钥对
func GenerateKeyPair(keyType KeyType) (PrivateKey, PublicKey, error) {
	return GenerateKeyPairWithReader(keyType, rand.Reader)
}

// GenerateKeyPairWithReader 使用指定随机源生成密钥对
func GenerateKeyPairWithReader(keyType KeyType, src io.Reader) (PrivateKey, PublicKey, error) {
	switch keyType {
	case KeyTypeEd25519:
		return GenerateEd25519Key(src)
	case KeyTypeSecp256k1:
		return GenerateSecp256k1Key(src)
	case KeyTypeECDSA:
		return GenerateECDSAKey(src)
	case KeyTypeRSA:
		return GenerateRSAKey(RSADefaultKeySize, src)
	default:
		return nil, nil, ErrBadKeyType
	}
}

// ============================================================================
//                              Raw 字节反序列化
// ============================================================================

// PubKeyUnmarshaller 从 Data 字节构造公钥
type PubKeyUnmarshaller func(data []byte) (PublicKey, error)

// PrivKeyUnmarshaller 从 Data 字节构造私钥
type PrivKeyUnmarshaller func(data []byte) (PrivateKey, error)

// PubKeyUnmarshallers 公钥反序列化函数表
var PubKeyUnmarshallers = map[KeyType]PubKeyUnmarshaller{
	KeyTypeEd25519:   UnmarshalEd25519PublicKey,
	KeyTypeSecp256k1: UnmarshalSecp256k1PublicKey,
	KeyTypeECDSA:     UnmarshalECDSAPublicKey,
	KeyTypeRSA:       UnmarshalRSAPublicKey,
}

// PrivKeyUnmarshallers 私钥反序列化函数表
var PrivKeyUnmarshallers = map[KeyType]PrivKeyUnmarshaller{
	KeyTypeEd25519:   UnmarshalEd25519PrivateKey,
	KeyTypeSecp256k1: UnmarshalSecp256k1PrivateKey,
	KeyTypeECDSA:     UnmarshalECDSAPrivateKey,
	KeyTypeRSA:       UnmarshalRSAPrivateKey,
}

// PublicKeyFromRaw 按类型从 Data 字节构造公钥
func PublicKeyFromRaw(keyType KeyType, data []byte) (PublicKey, error) {
	um, ok := PubKeyUnmarshallers[keyType]
	if !ok {
		return nil, ErrBadKeyType
	}
	return um(data)
}

// PrivateKeyFromRaw 按类型从 Data 字节构造私钥
func PrivateKeyFromRaw(keyType KeyType, data []byte) (PrivateKey, error) {
	um, ok := PrivKeyUnmarshallers[keyType]
	if !ok {
		return nil, ErrBadKeyType
	}
	return um(data)
}

// ============================================================================
//                              辅助函数
// ============================================================================

// KeyEqual 常量时间比较两个密钥
func KeyEqual(k1, k2 Key) bool {
	if k1 == nil || k2 == nil || k1.Type() != k2.Type() {
		return false
	}
	b1, err1 := k1.Raw()
	b2, err2 := k2.Raw()
	if err1 != nil || err2 != nil {
		return false
	}
	return subtle.ConstantTimeCompare(b1, b2) == 1
}

// RandomBytes 生成 n 字节加密安全随机数
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, b)
	return b, err
}
