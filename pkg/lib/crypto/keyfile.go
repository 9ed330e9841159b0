package crypto

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadOrCreateKey 读取 path 中的私钥；文件不存在时生成新密钥并写入
//
// 文件内容为 PrivateKey protobuf，权限 0600。path 为空时只生成不落盘。
func LoadOrCreateKey(path string, keyType KeyType) (PrivateKey, error) {
	if path == "" {
		priv, _, err := GenerateKeyPair(keyType)
		return priv, err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		priv, err := UnmarshalPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKeyFile, path, err)
		}
		return priv, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	priv, _, err := GenerateKeyPair(keyType)
	if err != nil {
		return nil, err
	}
	if err := SaveKey(path, priv); err != nil {
		return nil, err
	}
	return priv, nil
}

// SaveKey 把私钥写入 path（0600）
func SaveKey(path string, priv PrivateKey) error {
	data, err := MarshalPrivateKey(priv)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
