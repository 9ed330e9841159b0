package multiaddr

import (
	"github.com/dep2p/go-crawler/pkg/types"
)

// ForEach 依次访问每个组件，fn 返回 false 时停止
func ForEach(m Multiaddr, fn func(Component) bool) {
	b := m.Bytes()
	for len(b) > 0 {
		c, n, err := readComponent(b)
		if err != nil {
			return
		}
		if !fn(c) {
			return
		}
		b = b[n:]
	}
}

// SplitFirst 拆出第一个组件与剩余部分（剩余为空时为 nil）
func SplitFirst(m Multiaddr) (Component, Multiaddr) {
	c, n, err := readComponent(m.Bytes())
	if err != nil {
		return Component{}, nil
	}
	if n == len(m.Bytes()) {
		return c, nil
	}
	return c, &multiaddr{bytes: m.Bytes()[n:]}
}

// Split 拆出末尾的 /p2p 组件
//
// 输入 /ip4/1.2.3.4/tcp/4001/p2p/12D3KooW...，返回 /ip4/1.2.3.4/tcp/4001 与 PeerID。
// 没有 /p2p 组件时原样返回地址与空 PeerID；地址只有 /p2p 时 transport 为 nil。
func Split(m Multiaddr) (Multiaddr, types.PeerID) {
	var (
		last   Component
		offset int
		pos    int
	)
	ForEach(m, func(c Component) bool {
		last, offset = c, pos
		pos += len(c.raw)
		return true
	})
	if last.proto.Code != P_P2P || offset+len(last.raw) != len(m.Bytes()) {
		return m, ""
	}
	id := types.PeerID(last.data)
	if offset == 0 {
		return nil, id
	}
	return &multiaddr{bytes: m.Bytes()[:offset]}, id
}

// Join 在 transport 后追加 /p2p/<id>
func Join(transport Multiaddr, id types.PeerID) Multiaddr {
	p2p := &multiaddr{bytes: append(append(codeToVarint(P_P2P), codeToVarint(len(id))...), id...)}
	if transport == nil {
		return p2p
	}
	return transport.Encapsulate(p2p)
}

// GetPeerID 返回地址中 /p2p（或 /ipfs）组件的 PeerID
func GetPeerID(m Multiaddr) (types.PeerID, bool) {
	var id types.PeerID
	ForEach(m, func(c Component) bool {
		if c.proto.Code == P_P2P {
			id = types.PeerID(c.data)
			return false
		}
		return true
	})
	return id, id != ""
}

// HasProtocol 地址是否包含指定协议
func HasProtocol(m Multiaddr, code int) bool {
	found := false
	ForEach(m, func(c Component) bool {
		found = c.proto.Code == code
		return !found
	})
	return found
}

// IsTCPMultiaddr 是否包含 tcp 组件
func IsTCPMultiaddr(m Multiaddr) bool {
	return HasProtocol(m, P_TCP)
}

// FilterAddrs 保留 filter 返回 true 的地址
func FilterAddrs(addrs []Multiaddr, filter func(Multiaddr) bool) []Multiaddr {
	out := make([]Multiaddr, 0, len(addrs))
	for _, a := range addrs {
		if filter(a) {
			out = append(out, a)
		}
	}
	return out
}

// UniqueAddrs 去重，保持顺序
func UniqueAddrs(addrs []Multiaddr) []Multiaddr {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]Multiaddr, 0, len(addrs))
	for _, a := range addrs {
		k := string(a.Bytes())
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}
