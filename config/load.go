package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。示例：
//
//	{
//	  "session": {"connect_timeout": "10s"},
//	  "crawler": {"concurrency": 64, "bootnodes": ["/dns4/p2p.example.org/tcp/30333"]}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// MergeFile 把 JSON 文件叠加到已有配置上
//
// 文件中未出现的字段保持 cfg 当前值，用于在预设之上应用配置文件。
func MergeFile(cfg *Config, path string) error {
	if cfg == nil {
		return ErrNilConfig
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// ToJSON 把配置编码为缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	if c == nil {
		return nil, ErrNilConfig
	}
	return json.MarshalIndent(c, "", "  ")
}
