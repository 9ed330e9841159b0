package config

import (
	"errors"
)

// IdentityConfig 身份配置
//
// 爬虫用这把密钥完成 secio 握手并在 identify 中宣告自己。
type IdentityConfig struct {
	// KeyType 密钥类型
	// 可选值: "Ed25519", "Secp256k1", "ECDSA"
	KeyType string `json:"key_type"`

	// KeyFile 密钥文件路径
	// 为空时在内存中生成临时密钥，每次启动身份不同
	KeyFile string `json:"key_file"`

	// AutoGenerate 密钥文件不存在时是否生成并写入
	AutoGenerate bool `json:"auto_generate"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyType:      "Ed25519",
		KeyFile:      "",
		AutoGenerate: true,
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	switch c.KeyType {
	case "Ed25519", "Secp256k1", "ECDSA":
		return nil
	default:
		return errors.New("invalid key type: must be Ed25519, Secp256k1, or ECDSA")
	}
}

// WithKeyType 设置密钥类型
func (c IdentityConfig) WithKeyType(keyType string) IdentityConfig {
	c.KeyType = keyType
	return c
}

// WithKeyFile 设置密钥文件路径
func (c IdentityConfig) WithKeyFile(path string) IdentityConfig {
	c.KeyFile = path
	return c
}
