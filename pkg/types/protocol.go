package types

import "strings"

// ProtocolID 协议标识符，如 /ipfs/id/1.0.0
type ProtocolID string

// String 返回协议 ID 的字符串表示
func (p ProtocolID) String() string {
	return string(p)
}

// IsEmpty 检查协议 ID 是否为空
func (p ProtocolID) IsEmpty() bool {
	return p == ""
}

// Version 返回协议版本（最后一段）
func (p ProtocolID) Version() string {
	s := string(p)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Name 返回协议名称（不含版本）
func (p ProtocolID) Name() string {
	s := string(p)
	if i := strings.LastIndex(s, "/"); i > 0 {
		return s[:i]
	}
	return s
}

// Direction 连接方向
type Direction int

const (
	// DirOutbound 本端主动拨号
	DirOutbound Direction = iota
	// DirInbound 对端拨入（保留）
	DirInbound
)

// String 返回方向名称
func (d Direction) String() string {
	if d == DirInbound {
		return "IN"
	}
	return "OUT"
}
