package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-crawler/config"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/types"
)

// TestLoad_Ephemeral 未配置密钥文件时生成临时身份
func TestLoad_Ephemeral(t *testing.T) {
	a, err := Load(config.DefaultIdentityConfig())
	require.NoError(t, err)
	b, err := Load(config.DefaultIdentityConfig())
	require.NoError(t, err)

	assert.NotEqual(t, a.PeerID(), b.PeerID())
	assert.Equal(t, crypto.KeyTypeEd25519, a.PrivateKey().Type())
}

// TestLoad_AutoGenerate 自动生成后再次加载得到同一身份
func TestLoad_AutoGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "node.key")
	cfg := config.DefaultIdentityConfig().WithKeyFile(path).WithKeyType("Secp256k1")

	first, err := Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, crypto.KeyTypeSecp256k1, first.PrivateKey().Type())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, first.PeerID(), second.PeerID())
}

func TestLoad_MissingWithoutAutoGenerate(t *testing.T) {
	cfg := config.DefaultIdentityConfig().WithKeyFile(filepath.Join(t.TempDir(), "missing.key"))
	cfg.AutoGenerate = false

	_, err := Load(cfg)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestLoad_ExistingWithoutAutoGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	require.NoError(t, crypto.SaveKey(path, priv))

	cfg := config.DefaultIdentityConfig().WithKeyFile(path)
	cfg.AutoGenerate = false
	id, err := Load(cfg)
	require.NoError(t, err)

	want, err := crypto.IDFromPrivateKey(priv)
	require.NoError(t, err)
	assert.Equal(t, want, id.PeerID())
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	cfg := config.DefaultIdentityConfig().WithKeyFile(path)
	cfg.AutoGenerate = false
	_, err := Load(cfg)
	assert.ErrorIs(t, err, crypto.ErrInvalidKeyFile)
}

func TestLoad_BadKeyType(t *testing.T) {
	_, err := Load(config.DefaultIdentityConfig().WithKeyType("DSA"))
	assert.ErrorIs(t, err, crypto.ErrBadKeyType)
}

func TestNew_Nil(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

// TestModule_Provides 测试模块提供的类型
func TestModule_Provides(t *testing.T) {
	var (
		id   *Identity
		priv crypto.PrivateKey
		pid  types.PeerID
	)
	app := fxtest.New(t,
		Module(),
		fx.Populate(&id, &priv, &pid),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, id)
	assert.Equal(t, id.PeerID(), pid)
	assert.True(t, crypto.KeyEqual(id.PrivateKey(), priv))
}

func TestModule_WithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")
	cfg := config.DefaultIdentityConfig().WithKeyFile(path)

	var pid types.PeerID
	app := fxtest.New(t,
		fx.Supply(&cfg),
		Module(),
		fx.Populate(&pid),
	)
	defer app.RequireStart().RequireStop()

	again, err := Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, again.PeerID(), pid)
}
