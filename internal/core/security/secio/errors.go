package secio

import (
	"fmt"

	"github.com/dep2p/go-crawler/pkg/types"
)

var (
	// ErrNotEstablished 密钥尚未建立时收到负载帧或请求加密
	ErrNotEstablished = fmt.Errorf("%w: secio channel not established", types.ErrProtocolViolation)

	// ErrAlreadyRead ReadSecio 被重复调用
	ErrAlreadyRead = fmt.Errorf("%w: secio handshake already consumed", types.ErrProtocolViolation)

	// ErrNotProposed 未发送 Propose 就开始读取
	ErrNotProposed = fmt.Errorf("%w: proposal not sent", types.ErrProtocolViolation)

	// ErrTalkingToSelf 双方 order 相等，连接到了自身
	ErrTalkingToSelf = fmt.Errorf("%w: dialed self", types.ErrHandshake)

	// ErrNoCommonAlgorithm 双方候选算法无交集
	ErrNoCommonAlgorithm = fmt.Errorf("%w: no common algorithm", types.ErrHandshake)

	// ErrBadSignature Exchange 签名无效
	ErrBadSignature = fmt.Errorf("%w: invalid exchange signature", types.ErrHandshake)

	// ErrBadNonce 首帧不是本端 nonce
	ErrBadNonce = fmt.Errorf("%w: nonce mismatch", types.ErrHandshake)

	// ErrBadMAC 帧认证失败
	ErrBadMAC = fmt.Errorf("%w: message authentication failed", types.ErrHandshake)

	// ErrPeerIDMismatch 对端身份与期望不符
	ErrPeerIDMismatch = fmt.Errorf("%w: peer ID mismatch", types.ErrHandshake)
)
