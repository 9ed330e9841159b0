package session

import (
	"fmt"
	"time"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/protocol/identify"
	"github.com/dep2p/go-crawler/internal/core/protocol/kad"
	"github.com/dep2p/go-crawler/internal/core/transport/tcp"
)

// Config 会话配置
type Config struct {
	// ConnectTimeout TCP 连接超时
	ConnectTimeout time.Duration

	// SessionTimeout 从拨号开始计算的会话总预算
	SessionTimeout time.Duration

	// IdentifyTimeout identify 协商完成后等待回复的时间
	IdentifyTimeout time.Duration

	// KadTimeout kad 协商完成后等待回复的时间
	KadTimeout time.Duration

	// MaxFrameSize secio 帧上限
	MaxFrameSize int

	// AgentVersion 本端宣告的 agent
	AgentVersion string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:  tcp.DefaultConnectTimeout,
		SessionTimeout:  60 * time.Second,
		IdentifyTimeout: identify.DefaultTimeout,
		KadTimeout:      kad.DefaultTimeout,
		MaxFrameSize:    framing.DefaultMaxSize,
		AgentVersion:    identify.DefaultAgentVersion,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch {
	case c.ConnectTimeout <= 0:
		return fmt.Errorf("%w: connect timeout must be positive", ErrInvalidConfig)
	case c.SessionTimeout <= 0:
		return fmt.Errorf("%w: session timeout must be positive", ErrInvalidConfig)
	case c.IdentifyTimeout <= 0 || c.KadTimeout <= 0:
		return fmt.Errorf("%w: handler timeouts must be positive", ErrInvalidConfig)
	case c.MaxFrameSize <= 0:
		return fmt.Errorf("%w: max frame size must be positive", ErrInvalidConfig)
	}
	return nil
}
