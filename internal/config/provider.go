// Package config 把统一配置分发给各个组件
//
// 命令行层构造 *config.Config（文件、环境变量、参数依次覆盖），
// 本包负责校验并转换成各组件自己的配置类型，通过 fx 注入。
package config

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-crawler/config"
	"github.com/dep2p/go-crawler/internal/core/session"
	"github.com/dep2p/go-crawler/internal/core/transport/tcp"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
)

// Provider 配置提供者
//
// Provider 负责将配置分发给各个组件
type Provider struct {
	config *config.Config
}

// NewProvider 创建配置提供者
func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		config: cfg,
	}
}

// GetConfig 获取完整配置
func (p *Provider) GetConfig() *config.Config {
	return p.config
}

// GetIdentity 获取身份配置
func (p *Provider) GetIdentity() *config.IdentityConfig {
	return &p.config.Identity
}

// GetCrawler 获取爬虫配置
func (p *Provider) GetCrawler() *config.CrawlerConfig {
	return &p.config.Crawler
}

// GetMetrics 获取指标配置
func (p *Provider) GetMetrics() *config.MetricsConfig {
	return &p.config.Metrics
}

// SessionConfig 转换为会话层配置
func (p *Provider) SessionConfig() *session.Config {
	s := p.config.Session
	return &session.Config{
		ConnectTimeout:  s.ConnectTimeout.Duration(),
		SessionTimeout:  s.SessionTimeout.Duration(),
		IdentifyTimeout: s.IdentifyTimeout.Duration(),
		KadTimeout:      s.KadTimeout.Duration(),
		MaxFrameSize:    s.MaxFrameSize,
		AgentVersion:    s.AgentVersion,
	}
}

// TCPDialer 按会话配置创建 TCP 拨号器
func (p *Provider) TCPDialer() *tcp.Dialer {
	s := p.config.Session
	opts := []tcp.Option{tcp.WithConnectTimeout(s.ConnectTimeout.Duration())}
	if len(s.NameServers) > 0 {
		opts = append(opts, tcp.WithNameServers(s.NameServers...))
	}
	return tcp.NewDialer(opts...)
}

// Bootnodes 解析引导地址
//
// 要求：
//   - 每个地址都能解析为 multiaddr
//   - 传输部分为 ip4/ip6/dns4/dns6 + tcp
//
// /p2p/<PeerID> 后缀可选；带后缀时握手会校验对端身份。
func (p *Provider) Bootnodes() ([]multiaddr.Multiaddr, error) {
	return ParseBootnodes(p.config.Crawler.Bootnodes)
}

// ParseBootnodes 解析并校验引导地址，空串被跳过
func ParseBootnodes(addrs []string) ([]multiaddr.Multiaddr, error) {
	out := make([]multiaddr.Multiaddr, 0, len(addrs))
	for _, s := range addrs {
		if s == "" {
			continue
		}
		ma, err := multiaddr.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("bootnode %q: %w", s, err)
		}
		if err := tcp.CanDial(ma); err != nil {
			return nil, fmt.Errorf("bootnode %q: %w", s, err)
		}
		out = append(out, ma)
	}
	return multiaddr.UniqueAddrs(out), nil
}

// ============================================================================
//                              fx 模块
// ============================================================================

// ProviderResult fx 提供者结果
type ProviderResult struct {
	fx.Out

	Provider       *Provider
	IdentityConfig *config.IdentityConfig
	CrawlerConfig  *config.CrawlerConfig
	MetricsConfig  *config.MetricsConfig
	SessionConfig  *session.Config
	TCPDialer      *tcp.Dialer
	Bootnodes      []multiaddr.Multiaddr `name:"bootnodes"`
}

// ProvideConfig 提供配置
//
// 配置校验失败或引导地址无效时返回错误，fx 应用启动随之失败。
func ProvideConfig(cfg *config.Config) (ProviderResult, error) {
	if err := cfg.Validate(); err != nil {
		return ProviderResult{}, fmt.Errorf("配置验证失败: %w", err)
	}
	provider := NewProvider(cfg)

	bootnodes, err := provider.Bootnodes()
	if err != nil {
		return ProviderResult{}, fmt.Errorf("配置验证失败: %w", err)
	}

	return ProviderResult{
		Provider:       provider,
		IdentityConfig: provider.GetIdentity(),
		CrawlerConfig:  provider.GetCrawler(),
		MetricsConfig:  provider.GetMetrics(),
		SessionConfig:  provider.SessionConfig(),
		TCPDialer:      provider.TCPDialer(),
		Bootnodes:      bootnodes,
	}, nil
}

// Module 返回配置 fx 模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(ProvideConfig),
	)
}
