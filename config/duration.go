package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Duration 配置文件中的时长
//
// JSON 中写作 "15s"、"1m30s"；为兼容直接序列化 time.Duration 的旧配置，也接受纳秒整数。
// 输出总是字符串形式。
type Duration time.Duration

var errDurationType = errors.New(`duration must be a string like "30s" or an integer of nanoseconds`)

// UnmarshalJSON 解析字符串或纳秒整数
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		return d.Set(v)
	case float64:
		if v != float64(int64(v)) {
			return errDurationType
		}
		*d = Duration(int64(v))
		return nil
	default:
		return errDurationType
	}
}

// MarshalJSON 输出 "1m30s" 形式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Duration 转换为 time.Duration
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Set 实现 flag.Value；环境变量覆盖也走这里
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}
