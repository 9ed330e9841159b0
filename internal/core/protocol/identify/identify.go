// Package identify 实现 /ipfs/id/1.0.0 的出站请求
//
// 打开流、协商协议后读取恰好一条 varint 帧的 Identify 消息，随后关闭流。
// 协商完成后 Timeout 内没有消息返回 types.ErrDataTimeout。
package identify

import (
	"context"
	"fmt"
	"time"

	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/internal/core/protocol"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	pb "github.com/dep2p/go-crawler/pkg/lib/proto/identify"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("identify")

// DefaultTimeout 协商完成后等待 Identify 消息的时间
const DefaultTimeout = 15 * time.Second

// Info 对端自描述
type Info struct {
	// PeerID 由 PublicKey 派生；对端未提供公钥时为空
	PeerID          types.PeerID
	PublicKey       crypto.PublicKey
	AgentVersion    string
	ProtocolVersion string
	Protocols       []string
	ListenAddrs     []multiaddr.Multiaddr
	ObservedAddr    multiaddr.Multiaddr
}

// Handler 出站 Identify 处理器，实现 mplex.Handler[*Info]
type Handler struct {
	Timeout        time.Duration
	MaxMessageSize int
}

var _ mplex.Handler[*Info] = (*Handler)(nil)

// NewHandler 创建处理器；timeout <= 0 时使用 DefaultTimeout
func NewHandler(timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{Timeout: timeout, MaxMessageSize: protocol.DefaultMaxMessageSize}
}

// HandleStream 协商 /ipfs/id/1.0.0 并读取一条消息
func (h *Handler) HandleStream(ctx context.Context, s mplex.Stream) (*Info, error) {
	n, err := protocol.Negotiate(s, protocolids.Identify, h.MaxMessageSize, nil)
	if err != nil {
		return nil, err
	}

	dctx, stop := protocol.Deadline(ctx, s, h.Timeout)
	defer stop()

	msg, err := n.Next()
	if err != nil {
		return nil, protocol.DataTimeout(ctx, dctx, "identify", err)
	}
	info, err := Parse(msg)
	if err != nil {
		return nil, err
	}
	_ = s.CloseWrite()
	return info, nil
}

// Parse 解析 Identify protobuf；无法解析的地址被跳过
func Parse(b []byte) (*Info, error) {
	var m pb.Identify
	if err := m.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("%w: identify: %v", types.ErrProtocolViolation, err)
	}

	info := &Info{
		AgentVersion:    m.AgentVersion,
		ProtocolVersion: m.ProtocolVersion,
		Protocols:       m.Protocols,
	}
	if len(m.PublicKey) > 0 {
		pub, err := crypto.UnmarshalPublicKey(m.PublicKey)
		if err != nil {
			log.Debug("忽略无法解析的公钥", "err", err)
		} else {
			info.PublicKey = pub
			info.PeerID = crypto.IDFromEncodedKey(m.PublicKey)
		}
	}
	for _, raw := range m.ListenAddrs {
		a, err := multiaddr.NewMultiaddrBytes(raw)
		if err != nil {
			log.Debug("跳过无效监听地址", "err", err)
			continue
		}
		info.ListenAddrs = append(info.ListenAddrs, a)
	}
	if len(m.ObservedAddr) > 0 {
		if a, err := multiaddr.NewMultiaddrBytes(m.ObservedAddr); err == nil {
			info.ObservedAddr = a
		}
	}
	return info, nil
}

// ============================================================================
//                              本端自描述
// ============================================================================

// DefaultAgentVersion 本端宣告的 agent
const DefaultAgentVersion = "substrate-bot/0.1.0"

// LocalInfo 构造本端 Identify 消息（已编码，未加帧）
//
// 监听地址固定为 /ip4/127.0.0.1/tcp/0/p2p/<本端 ID>：爬虫不接受入站连接。
func LocalInfo(priv crypto.PrivateKey, agent string, observed multiaddr.Multiaddr) ([]byte, error) {
	pubBytes, err := crypto.MarshalPublicKey(priv.GetPublic())
	if err != nil {
		return nil, err
	}
	id := crypto.IDFromEncodedKey(pubBytes)
	listen := multiaddr.Join(multiaddr.StringCast("/ip4/127.0.0.1/tcp/0"), id)

	if agent == "" {
		agent = DefaultAgentVersion
	}
	m := &pb.Identify{
		PublicKey:       pubBytes,
		ListenAddrs:     [][]byte{listen.Bytes()},
		ProtocolVersion: protocolids.ProtocolVersion,
		AgentVersion:    agent,
	}
	for _, p := range protocolids.Advertised() {
		m.Protocols = append(m.Protocols, string(p))
	}
	if observed != nil {
		m.ObservedAddr = observed.Bytes()
	}
	return m.Marshal(), nil
}
