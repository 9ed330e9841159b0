package multiaddr

import (
	"fmt"
	"strings"
)

// Component 多地址中的单个 协议+值
type Component struct {
	proto Protocol
	// raw 该组件的完整二进制（代码 + 长度前缀 + 数据）
	raw []byte
	// data 仅数据部分
	data []byte
}

// Protocol 返回组件的协议
func (c Component) Protocol() Protocol {
	return c.proto
}

// RawValue 返回数据部分的字节
func (c Component) RawValue() []byte {
	return c.data
}

// Value 返回数据部分的文本形式
func (c Component) Value() string {
	if c.proto.Transcoder == nil {
		return ""
	}
	s, err := c.proto.Transcoder.BytesToString(c.data)
	if err != nil {
		return ""
	}
	return s
}

// String 返回 /name[/value]
func (c Component) String() string {
	if c.proto.Size == 0 {
		return "/" + c.proto.Name
	}
	return "/" + c.proto.Name + "/" + c.Value()
}

// readComponent 从 b 开头解析一个组件，返回组件与消耗的字节数
func readComponent(b []byte) (Component, int, error) {
	code, n, err := readVarintCode(b)
	if err != nil {
		return Component{}, 0, err
	}
	proto := ProtocolWithCode(code)
	if proto.Code == 0 {
		return Component{}, 0, fmt.Errorf("%w: %w: code 0x%x", ErrInvalidMultiaddr, ErrInvalidProtocol, code)
	}

	offset := n
	size := 0
	switch {
	case proto.Size == LengthPrefixedVarSize:
		l, ln, err := readLength(b[offset:])
		if err != nil {
			return Component{}, 0, err
		}
		offset += ln
		size = l
	case proto.Size > 0:
		size = proto.Size / 8
	}
	if len(b)-offset < size {
		return Component{}, 0, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrInvalidMultiaddr, proto.Name, size, len(b)-offset)
	}

	data := b[offset : offset+size]
	if proto.Transcoder != nil {
		if err := proto.Transcoder.ValidateBytes(data); err != nil {
			return Component{}, 0, fmt.Errorf("%w: %s: %v", ErrInvalidMultiaddr, proto.Name, err)
		}
	}
	end := offset + size
	return Component{proto: proto, raw: b[:end], data: data}, end, nil
}

// components 解析全部组件
func components(b []byte) ([]Component, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidMultiaddr)
	}
	var out []Component
	for len(b) > 0 {
		c, n, err := readComponent(b)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		b = b[n:]
	}
	return out, nil
}

// stringToBytes 文本形式转二进制
func stringToBytes(s string) ([]byte, error) {
	s = strings.TrimRight(s, "/")
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidMultiaddr)
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("%w: must begin with /", ErrInvalidMultiaddr)
	}

	parts := strings.Split(s, "/")[1:]
	var out []byte
	for len(parts) > 0 {
		name := parts[0]
		proto := ProtocolWithName(name)
		if proto.Code == 0 {
			return nil, fmt.Errorf("%w: unknown protocol %s", ErrInvalidProtocol, name)
		}
		out = append(out, proto.VCode...)
		parts = parts[1:]

		if proto.Size == 0 {
			continue
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("%w: protocol %s requires a value", ErrInvalidMultiaddr, name)
		}
		value, err := proto.Transcoder.StringToBytes(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMultiaddr, name, err)
		}
		if proto.Size == LengthPrefixedVarSize {
			out = append(out, codeToVarint(len(value))...)
		} else if len(value)*8 != proto.Size {
			return nil, fmt.Errorf("%w: %s value of %d bytes", ErrInvalidMultiaddr, name, len(value))
		}
		out = append(out, value...)
		parts = parts[1:]
	}
	return out, nil
}

// bytesToString 二进制转文本形式
func bytesToString(b []byte) (string, error) {
	cs, err := components(b)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range cs {
		sb.WriteString(c.String())
	}
	return sb.String(), nil
}
