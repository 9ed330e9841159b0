package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dep2p/go-crawler/config"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("identity")

// ErrKeyNotFound 密钥文件不存在且未开启自动生成
var ErrKeyNotFound = errors.New("identity key file not found")

// Identity 本端身份
type Identity struct {
	priv crypto.PrivateKey
	id   types.PeerID
}

// New 从私钥创建身份
func New(priv crypto.PrivateKey) (*Identity, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", crypto.ErrBadKeyType)
	}
	id, err := crypto.IDFromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return &Identity{priv: priv, id: id}, nil
}

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() crypto.PrivateKey {
	return i.priv
}

// PeerID 返回本端 PeerID
func (i *Identity) PeerID() types.PeerID {
	return i.id
}

// Load 按配置加载或生成身份
func Load(cfg config.IdentityConfig) (*Identity, error) {
	keyType, err := crypto.ParseKeyType(cfg.KeyType)
	if err != nil {
		return nil, err
	}

	var priv crypto.PrivateKey
	switch {
	case cfg.KeyFile == "":
		priv, _, err = crypto.GenerateKeyPair(keyType)
		if err != nil {
			return nil, fmt.Errorf("创建身份失败: %w", err)
		}
		log.Warn("未配置密钥文件，使用临时身份")
	case cfg.AutoGenerate:
		priv, err = crypto.LoadOrCreateKey(cfg.KeyFile, keyType)
		if err != nil {
			return nil, fmt.Errorf("加载身份失败: %w", err)
		}
	default:
		priv, err = readKey(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("加载身份失败: %w", err)
		}
	}

	id, err := New(priv)
	if err != nil {
		return nil, err
	}
	log.Info("本端身份已就绪", "peerID", id.PeerID().ShortString(), "keyType", priv.Type().String())
	return id, nil
}

func readKey(path string) (crypto.PrivateKey, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的密钥路径是预期行为
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	priv, err := crypto.UnmarshalPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", crypto.ErrInvalidKeyFile, path, err)
	}
	return priv, nil
}
