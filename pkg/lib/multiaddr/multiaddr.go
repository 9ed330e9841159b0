package multiaddr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Multiaddr 不可变的自描述网络地址
type Multiaddr interface {
	// Bytes 返回二进制表示（不要修改返回的字节）
	Bytes() []byte

	// String 返回文本表示
	String() string

	// Equal 字节序列相同即相等
	Equal(Multiaddr) bool

	// Protocols 返回地址包含的协议列表
	Protocols() []Protocol

	// Encapsulate 在末尾追加另一个地址
	Encapsulate(Multiaddr) Multiaddr

	// Decapsulate 去掉匹配的后缀
	Decapsulate(Multiaddr) Multiaddr

	// ValueForProtocol 返回第一个指定协议组件的值
	ValueForProtocol(code int) (string, error)
}

type multiaddr struct {
	bytes []byte
}

// NewMultiaddr 解析文本形式
func NewMultiaddr(s string) (Multiaddr, error) {
	b, err := stringToBytes(s)
	if err != nil {
		return nil, err
	}
	return &multiaddr{bytes: b}, nil
}

// NewMultiaddrBytes 解析二进制形式（复制输入）
func NewMultiaddrBytes(b []byte) (Multiaddr, error) {
	if _, err := components(b); err != nil {
		return nil, err
	}
	return &multiaddr{bytes: append([]byte(nil), b...)}, nil
}

// StringCast 解析已知合法的文本形式，失败时 panic（用于常量与测试）
func StringCast(s string) Multiaddr {
	m, err := NewMultiaddr(s)
	if err != nil {
		panic(fmt.Errorf("multiaddr %q: %w", s, err))
	}
	return m
}

func (m *multiaddr) Bytes() []byte {
	return m.bytes
}

func (m *multiaddr) String() string {
	s, err := bytesToString(m.bytes)
	if err != nil {
		// 构造时已校验
		panic(fmt.Errorf("multiaddr failed to convert to string: %w", err))
	}
	return s
}

func (m *multiaddr) Equal(other Multiaddr) bool {
	if other == nil {
		return false
	}
	return bytes.Equal(m.bytes, other.Bytes())
}

func (m *multiaddr) Protocols() []Protocol {
	var out []Protocol
	ForEach(m, func(c Component) bool {
		out = append(out, c.proto)
		return true
	})
	return out
}

func (m *multiaddr) Encapsulate(other Multiaddr) Multiaddr {
	if other == nil {
		return m
	}
	b := make([]byte, 0, len(m.bytes)+len(other.Bytes()))
	b = append(b, m.bytes...)
	return &multiaddr{bytes: append(b, other.Bytes()...)}
}

func (m *multiaddr) Decapsulate(other Multiaddr) Multiaddr {
	if other == nil {
		return m
	}
	ob := other.Bytes()
	if len(ob) >= len(m.bytes) || !bytes.HasSuffix(m.bytes, ob) {
		return m
	}
	return &multiaddr{bytes: m.bytes[:len(m.bytes)-len(ob)]}
}

func (m *multiaddr) ValueForProtocol(code int) (string, error) {
	var (
		value string
		found bool
	)
	ForEach(m, func(c Component) bool {
		if c.proto.Code == code {
			value, found = c.Value(), true
			return false
		}
		return true
	})
	if !found {
		return "", fmt.Errorf("%w: 0x%x", ErrNotFound, code)
	}
	return value, nil
}

// MarshalJSON 编码为文本形式
func (m *multiaddr) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 从文本形式解码
func (m *multiaddr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := stringToBytes(s)
	if err != nil {
		return err
	}
	m.bytes = b
	return nil
}
