package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-crawler/config"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/types"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// 配置（可选，使用默认配置）
	Config *config.IdentityConfig `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Identity   *Identity
	PrivateKey crypto.PrivateKey
	PeerID     types.PeerID
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := config.DefaultIdentityConfig()
	if input.Config != nil {
		cfg = *input.Config
	}

	id, err := Load(cfg)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{
		Identity:   id,
		PrivateKey: id.PrivateKey(),
		PeerID:     id.PeerID(),
	}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideServices),
	)
}
