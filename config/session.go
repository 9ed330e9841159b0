package config

import (
	"errors"
	"time"
)

// SessionConfig 会话配置
//
// 一次会话从拨号开始，受 SessionTimeout 约束；identify 与 kad
// 各自在协商完成后有独立的等待时间。
type SessionConfig struct {
	// ConnectTimeout TCP 连接超时
	ConnectTimeout Duration `json:"connect_timeout"`

	// SessionTimeout 会话总预算
	SessionTimeout Duration `json:"session_timeout"`

	// IdentifyTimeout identify 等待时间
	IdentifyTimeout Duration `json:"identify_timeout"`

	// KadTimeout kad FIND_NODE 等待时间
	KadTimeout Duration `json:"kad_timeout"`

	// MaxFrameSize secio 帧上限（字节）
	MaxFrameSize int `json:"max_frame_size"`

	// AgentVersion 本端宣告的 agent
	AgentVersion string `json:"agent_version"`

	// NameServers dns4/dns6 解析使用的服务器（host:port）
	// 为空时读取 /etc/resolv.conf
	NameServers []string `json:"name_servers,omitempty"`
}

// DefaultSessionConfig 返回默认会话配置
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ConnectTimeout:  Duration(15 * time.Second),
		SessionTimeout:  Duration(60 * time.Second),
		IdentifyTimeout: Duration(15 * time.Second),
		KadTimeout:      Duration(15 * time.Second),
		MaxFrameSize:    4 << 20,
		AgentVersion:    "substrate-bot/0.1.0",
	}
}

// Validate 验证会话配置
func (c SessionConfig) Validate() error {
	if c.ConnectTimeout <= 0 || c.SessionTimeout <= 0 {
		return errors.New("connect and session timeouts must be positive")
	}
	if c.IdentifyTimeout <= 0 || c.KadTimeout <= 0 {
		return errors.New("handler timeouts must be positive")
	}
	if c.ConnectTimeout > c.SessionTimeout {
		return errors.New("connect timeout must not exceed session timeout")
	}
	if c.MaxFrameSize <= 0 {
		return errors.New("max frame size must be positive")
	}
	return nil
}
