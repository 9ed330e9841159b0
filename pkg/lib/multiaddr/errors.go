package multiaddr

import "errors"

var (
	// ErrInvalidMultiaddr 地址格式错误
	ErrInvalidMultiaddr = errors.New("invalid multiaddr")

	// ErrInvalidProtocol 未知协议
	ErrInvalidProtocol = errors.New("invalid protocol")

	// ErrNotFound 地址中没有指定协议
	ErrNotFound = errors.New("protocol not found in multiaddr")
)
