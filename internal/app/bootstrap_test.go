package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/dep2p/go-crawler/config"
	"github.com/dep2p/go-crawler/internal/core/metrics"
	"github.com/dep2p/go-crawler/internal/core/session"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	pbid "github.com/dep2p/go-crawler/pkg/lib/proto/identify"
)

func startRemote(t *testing.T) *session.Remote {
	t.Helper()
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	pub, err := crypto.MarshalPublicKey(priv.GetPublic())
	require.NoError(t, err)

	r := session.NewRemote(priv)
	r.Identify = (&pbid.Identify{
		PublicKey:    pub,
		AgentVersion: "polkadot/0.9.43-ba42b9ce51d (bootnode)",
	}).Marshal()
	require.NoError(t, r.Start())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Crawler.Output = filepath.Join(t.TempDir(), "peers.jsonl")
	cfg.Session.KadTimeout = config.Duration(300 * time.Millisecond)
	cfg.Metrics.ReportInterval = config.Duration(time.Hour)
	return cfg
}

// TestBootstrap_NilConfig 空配置直接报错
func TestBootstrap_NilConfig(t *testing.T) {
	_, err := NewBootstrap(nil).Build()
	assert.ErrorIs(t, err, config.ErrNilConfig)
}

// TestBootstrap_InvalidConfig 配置校验失败时构建失败
func TestBootstrap_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Crawler.Concurrency = 0

	_, err := NewBootstrap(cfg).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be positive")
}

// TestBootstrap_StopBeforeStart 未启动时 Stop 为空操作
func TestBootstrap_StopBeforeStart(t *testing.T) {
	b := NewBootstrap(testConfig(t))
	assert.NoError(t, b.Stop(context.Background()))
	assert.Nil(t, b.Done())
}

// TestRunApp 完整启动：拨号回环对端、写出报告、停止后日志文件关闭
func TestRunApp(t *testing.T) {
	r := startRemote(t)
	cfg := testConfig(t)
	cfg.Crawler.Bootnodes = []string{r.Addr().String()}
	logFile := filepath.Join(t.TempDir(), "crawler.log")

	var col *metrics.Collector
	b := NewBootstrap(cfg,
		WithLogFile(logFile),
		WithLogLevel("info"),
		WithStopTimeout(5*time.Second),
		WithFxOptions(fx.Populate(&col)),
	)
	a, err := RunApp(context.Background(), b)
	require.NoError(t, err)
	require.NotNil(t, col)

	require.Eventually(t, func() bool {
		return col.Stats().Processed() == 1
	}, 10*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Wait(ctx)
	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop())

	out, err := os.ReadFile(cfg.Crawler.Output)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"node_name":"bootnode"`)

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "日志文件初始化成功")
	assert.Nil(t, b.logOut)
}

// TestModules_Graph 模块集合可以独立装配
func TestModules_Graph(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(testConfig(t)),
		Modules(),
	)
	require.NoError(t, app.Err())
}
