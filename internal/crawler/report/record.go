// Package report 把会话摘要加工为报告记录并输出
package report

import (
	"net"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-crawler/internal/core/session"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	"github.com/dep2p/go-crawler/pkg/types"
)

// Record 一个节点的报告记录
type Record struct {
	SessionID       string      `json:"session_id"`
	Address         string      `json:"address"`
	PeerID          string      `json:"peer_id,omitempty"`
	Agent           *Agent      `json:"agent,omitempty"`
	ProtocolVersion string      `json:"protocol_version,omitempty"`
	Host            Host        `json:"host"`
	Connection      Connection  `json:"connection"`
	Blockchain      *Blockchain `json:"blockchain,omitempty"`
	Protocols       []string    `json:"protocols,omitempty"`
	ListenAddrs     []string    `json:"listen_addrs,omitempty"`
	ObservedAddr    string      `json:"observed_addr,omitempty"`
	ClosestPeers    int         `json:"closest_peers"`
	Outcome         string      `json:"outcome"`
}

// Host 拨号地址的主机部分
type Host struct {
	IP   string `json:"ip,omitempty"`
	DNS  string `json:"dns,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Connection 连接信息
type Connection struct {
	Type           string    `json:"type"`
	ConnectedAt    time.Time `json:"connected_at"`
	DisconnectedAt time.Time `json:"disconnected_at"`
	DurationMillis int64     `json:"duration_ms"`
}

// Blockchain 链状态
type Blockchain struct {
	Height   uint64 `json:"height"`
	BestHash string `json:"best_hash"`
	Genesis  string `json:"genesis"`
}

// Processor 把 PeerSummary 加工为 Record
type Processor struct {
	clock  clock.Clock
	agents AgentParser
}

// NewProcessor 创建加工器
func NewProcessor(c clock.Clock) *Processor {
	if c == nil {
		c = clock.New()
	}
	return &Processor{clock: c}
}

// Process 加工一条摘要
func (p *Processor) Process(s *session.PeerSummary) Record {
	r := Record{
		SessionID:       s.SessionID,
		PeerID:          s.PeerID.String(),
		Agent:           p.agents.Parse(s.Agent),
		ProtocolVersion: s.ProtocolVersion,
		Protocols:       s.Protocols,
		ClosestPeers:    s.ClosestPeers,
		Outcome:         s.Outcome.String(),
	}

	if s.Address != nil {
		r.Address = s.Address.String()
		r.Host = hostOf(s.Address)
		// 握手没有给出身份时从地址的 /p2p 组件取
		if s.PeerID == "" {
			if id, ok := multiaddr.GetPeerID(s.Address); ok {
				r.PeerID = id.String()
			}
		}
	}

	disconnected := s.DisconnectedAt
	if disconnected.IsZero() {
		disconnected = p.clock.Now()
	}
	r.Connection = Connection{
		Type:           connectionType(s.Direction),
		ConnectedAt:    s.ConnectedAt,
		DisconnectedAt: disconnected,
	}
	if !s.ConnectedAt.IsZero() && disconnected.After(s.ConnectedAt) {
		r.Connection.DurationMillis = disconnected.Sub(s.ConnectedAt).Milliseconds()
	}

	if s.Chain != nil {
		r.Blockchain = &Blockchain{
			Height:   s.Chain.Height,
			BestHash: s.Chain.BestHash,
			Genesis:  s.Chain.Genesis,
		}
	}

	for _, a := range s.ListenAddrs {
		r.ListenAddrs = append(r.ListenAddrs, a.String())
	}
	if s.ObservedAddr != nil {
		r.ObservedAddr = s.ObservedAddr.String()
	}
	return r
}

func hostOf(a multiaddr.Multiaddr) Host {
	var h Host
	host, port, family, err := multiaddr.DialArgs(a)
	if err != nil {
		return h
	}
	h.Port = port
	if family.IsDNS() {
		h.DNS = host
	} else if ip := net.ParseIP(host); ip != nil {
		h.IP = ip.String()
	}
	return h
}

func connectionType(d types.Direction) string {
	if d == types.DirInbound {
		return "in"
	}
	return "out"
}

// Addr 返回 ip:port 或 dns:port
func (h Host) Addr() string {
	host := h.IP
	if host == "" {
		host = h.DNS
	}
	if host == "" {
		return ""
	}
	return net.JoinHostPort(host, strconv.Itoa(h.Port))
}
