// Package kad 实现 /ipfs/kad/1.0.0 的 FIND_NODE 请求
//
// 协商完成后立即发送一条 FIND_NODE，随后在 Timeout 内最多读取 MaxResponses 条回复。
// 长度不超过 2 字节的回复帧被丢弃，不交给解析器。
package kad

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/internal/core/protocol"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	pb "github.com/dep2p/go-crawler/pkg/lib/proto/dht"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("kad")

const (
	// DefaultTimeout 协商完成后等待回复的时间
	DefaultTimeout = 15 * time.Second

	// DefaultMaxResponses 最多读取的回复数
	DefaultMaxResponses = 3

	// placeholderSize 不超过此长度的回复被丢弃
	placeholderSize = 2
)

// PeerInfo 最近节点
type PeerInfo struct {
	ID    types.PeerID
	Addrs []multiaddr.Multiaddr
}

// Result 一次查询得到的最近节点
type Result struct {
	Peers []PeerInfo
	// Responses 被解析的回复条数
	Responses int
}

// Addrs 所有节点的地址，按出现顺序去重
func (r *Result) Addrs() []multiaddr.Multiaddr {
	var all []multiaddr.Multiaddr
	for _, p := range r.Peers {
		all = append(all, p.Addrs...)
	}
	return multiaddr.UniqueAddrs(all)
}

// Handler 出站 FIND_NODE 处理器，实现 mplex.Handler[*Result]
type Handler struct {
	Timeout        time.Duration
	MaxResponses   int
	MaxMessageSize int
	// Target 查询目标；为空时每次请求随机生成
	Target []byte
}

var _ mplex.Handler[*Result] = (*Handler)(nil)

// NewHandler 创建处理器；timeout <= 0 时使用 DefaultTimeout
func NewHandler(timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{
		Timeout:        timeout,
		MaxResponses:   DefaultMaxResponses,
		MaxMessageSize: protocol.DefaultMaxMessageSize,
	}
}

// HandleStream 协商 /ipfs/kad/1.0.0，发送 FIND_NODE 并收集回复
func (h *Handler) HandleStream(ctx context.Context, s mplex.Stream) (*Result, error) {
	req, err := h.request()
	if err != nil {
		return nil, err
	}

	var writeErr error
	n, err := protocol.Negotiate(s, protocolids.Kad, h.MaxMessageSize, func() {
		_, writeErr = s.Write(req)
	})
	if err != nil {
		return nil, err
	}
	if writeErr != nil {
		return nil, fmt.Errorf("write find_node: %w", writeErr)
	}

	dctx, stop := protocol.Deadline(ctx, s, h.Timeout)
	defer stop()

	res := &Result{}
	for res.Responses < h.MaxResponses {
		msg, err := n.Next()
		if err != nil {
			if res.Responses > 0 && (err == io.EOF || dctx.Err() != nil) {
				break
			}
			if err == io.EOF {
				return nil, fmt.Errorf("%w: kad stream closed without response", types.ErrDataTimeout)
			}
			return nil, protocol.DataTimeout(ctx, dctx, "kad", err)
		}
		if len(msg) <= placeholderSize {
			log.Debug("跳过占位回复", "size", len(msg))
			continue
		}
		peers, err := Parse(msg)
		if err != nil {
			log.Debug("跳过无法解析的 kad 回复", "err", err)
			continue
		}
		res.Peers = append(res.Peers, peers...)
		res.Responses++
	}
	_ = s.CloseWrite()
	return res, nil
}

// request 编码一条 varint 帧的 FIND_NODE
func (h *Handler) request() ([]byte, error) {
	target := h.Target
	if len(target) == 0 {
		var seed [32]byte
		if _, err := rand.Read(seed[:]); err != nil {
			return nil, err
		}
		target = types.EncodeMultihash(types.MhSha2_256, seed[:])
	}
	m := &pb.Message{Type: pb.MessageFindNode, Key: target}
	return framing.NewVarint(0).Encode(m.Marshal()), nil
}

// Parse 解析一条回复中的最近节点；无效的 ID 或地址被跳过
func Parse(b []byte) ([]PeerInfo, error) {
	var m pb.Message
	if err := m.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("%w: kad: %v", types.ErrProtocolViolation, err)
	}

	peers := make([]PeerInfo, 0, len(m.CloserPeers))
	for _, p := range m.CloserPeers {
		id, err := types.IDFromBytes(p.ID)
		if err != nil {
			log.Debug("跳过 ID 无效的节点", "err", err)
			continue
		}
		info := PeerInfo{ID: id}
		for _, raw := range p.Addrs {
			a, err := multiaddr.NewMultiaddrBytes(raw)
			if err != nil {
				log.Debug("跳过无效地址", "peer", id.ShortString(), "err", err)
				continue
			}
			info.Addrs = append(info.Addrs, a)
		}
		peers = append(peers, info)
	}
	return peers, nil
}
