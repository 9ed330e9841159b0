package types

import "errors"

// ============================================================================
//                              会话错误分类
// ============================================================================
//
// 各包用 fmt.Errorf("%w: ...", types.ErrX, ...) 包装，调用方用 errors.Is 判断。

var (
	// ErrConnect TCP 连接失败或连接超时
	ErrConnect = errors.New("connect failed")

	// ErrFraming 长度前缀畸形或帧超过上限
	ErrFraming = errors.New("framing error")

	// ErrNegotiation multistream 协商失败（对端返回 na 或回显不匹配）
	ErrNegotiation = errors.New("protocol negotiation failed")

	// ErrHandshake secio 握手失败（签名、算法、nonce、身份不符）
	ErrHandshake = errors.New("secure handshake failed")

	// ErrDataTimeout 子协议在超时内没有产生可用数据
	ErrDataTimeout = errors.New("no data before timeout")

	// ErrProtocolViolation 对端或调用方违反了协议状态机
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrUnsupportedAddress 地址不是 ip4/ip6/dns4/dns6 + tcp
	ErrUnsupportedAddress = errors.New("unsupported address")
)

// ============================================================================
//                              PeerID 错误
// ============================================================================

var (
	// ErrEmptyPeerID 空节点 ID
	ErrEmptyPeerID = errors.New("empty peer ID")

	// ErrInvalidPeerID 无效的节点 ID
	ErrInvalidPeerID = errors.New("invalid peer ID")
)
