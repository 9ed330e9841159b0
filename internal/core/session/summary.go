package session

import (
	"fmt"
	"time"

	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	"github.com/dep2p/go-crawler/pkg/types"
)

// Outcome 会话结果
type Outcome int

const (
	// OutcomeFailed 引导完成但没有任何协议数据
	OutcomeFailed Outcome = iota
	// OutcomePartial identify 与 kad 只有一个有数据
	OutcomePartial
	// OutcomeSuccess identify 与 kad 都有数据
	OutcomeSuccess
)

// String 返回结果名称
func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomePartial:
		return "partial"
	case OutcomeSuccess:
		return "success"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ChainStatus 链状态；当前协议集合不提供，始终为 nil
type ChainStatus struct {
	Height   uint64
	BestHash string
	Genesis  string
}

// PeerSummary 一次会话对一个节点的观察
type PeerSummary struct {
	SessionID string
	Address   multiaddr.Multiaddr
	// PeerID 由 secio 握手认证
	PeerID types.PeerID

	Agent           string
	ProtocolVersion string
	Protocols       []string
	ListenAddrs     []multiaddr.Multiaddr
	ObservedAddr    multiaddr.Multiaddr
	Chain           *ChainStatus

	// ClosestPeers kad 返回的节点数
	ClosestPeers int

	// IdentityMismatch identify 公钥派生的 PeerID 与握手认证的不一致
	IdentityMismatch bool

	ConnectedAt    time.Time
	DisconnectedAt time.Time
	Direction      types.Direction
	Outcome        Outcome

	identified bool
	closest    bool
}

// Duration 连接持续时间
func (s *PeerSummary) Duration() time.Duration {
	if s.ConnectedAt.IsZero() || s.DisconnectedAt.Before(s.ConnectedAt) {
		return 0
	}
	return s.DisconnectedAt.Sub(s.ConnectedAt)
}

// fold 把一条协议消息并入摘要，返回新发现的地址
func (s *PeerSummary) fold(msg ProtocolMessage) []multiaddr.Multiaddr {
	switch m := msg.(type) {
	case IdentifyMessage:
		info := m.Info
		s.Agent = info.AgentVersion
		s.ProtocolVersion = info.ProtocolVersion
		s.Protocols = info.Protocols
		s.ListenAddrs = info.ListenAddrs
		s.ObservedAddr = info.ObservedAddr
		switch {
		case s.PeerID == "":
			s.PeerID = info.PeerID
		case info.PeerID != "" && info.PeerID != s.PeerID:
			s.IdentityMismatch = true
			log.Debug("identify 中的身份与握手不一致",
				"session", s.SessionID,
				"peer", s.PeerID.ShortString(),
				"claimed", info.PeerID.ShortString())
		}
		s.identified = true
		return nil
	case ClosestPeersMessage:
		s.ClosestPeers += len(m.Result.Peers)
		s.closest = true
		return m.Result.Addrs()
	default:
		panic(fmt.Sprintf("session: unknown protocol message %T", msg))
	}
}

// finalize 记录断开时间并确定结果；之后摘要只作为值使用
func (s *PeerSummary) finalize(at time.Time) {
	s.DisconnectedAt = at
	switch {
	case s.identified && s.closest:
		s.Outcome = OutcomeSuccess
	case s.identified || s.closest:
		s.Outcome = OutcomePartial
	default:
		s.Outcome = OutcomeFailed
	}
}
