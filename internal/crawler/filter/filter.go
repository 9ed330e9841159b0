// Package filter 决定哪些发现的地址值得回到拨号队列
package filter

import (
	"net"
	"strings"

	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
)

// Filter 地址过滤器
type Filter func(multiaddr.Multiaddr) bool

// All 接受所有地址
func All(multiaddr.Multiaddr) bool { return true }

// Apply 返回 addrs 中被 f 接受的地址
func (f Filter) Apply(addrs []multiaddr.Multiaddr) []multiaddr.Multiaddr {
	if f == nil {
		return addrs
	}
	return multiaddr.FilterAddrs(addrs, f)
}

// And 组合多个过滤器，全部接受才接受
func And(fs ...Filter) Filter {
	return func(a multiaddr.Multiaddr) bool {
		for _, f := range fs {
			if f != nil && !f(a) {
				return false
			}
		}
		return true
	}
}

// TCP 只接受带 tcp 组件的地址
func TCP(a multiaddr.Multiaddr) bool {
	return a != nil && multiaddr.IsTCPMultiaddr(a)
}

// PublicOnly 只接受公网可达的 TCP 地址
//
// 拒绝：
//   - 回环、未指定、链路本地、多播
//   - 私网（10/8、172.16/12、192.168/16、fc00::/7）
//   - 运营商级 NAT 100.64.0.0/10、0.0.0.0/8、240.0.0.0/4
//   - 主机名为 localhost 的 dns 地址
//
// 文档地址段（192.0.2.0/24 等）保留，它们在测试网络中可路由。
func PublicOnly(a multiaddr.Multiaddr) bool {
	if !TCP(a) {
		return false
	}

	c, _ := multiaddr.SplitFirst(a)
	switch c.Protocol().Code {
	case multiaddr.P_IP4, multiaddr.P_IP6:
		return IsPublicIP(net.IP(c.RawValue()))
	case multiaddr.P_DNS4, multiaddr.P_DNS6, multiaddr.P_DNS:
		host := strings.ToLower(strings.TrimSuffix(c.Value(), "."))
		return host != "localhost" && !strings.HasSuffix(host, ".localhost")
	default:
		return false
	}
}

// IsPublicIP 判断 IP 是否是公网地址
func IsPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	// 必须是全局单播地址（排除回环、未指定、多播、链路本地）
	if !ip.IsGlobalUnicast() {
		return false
	}

	// 排除私网地址
	if ip.IsPrivate() {
		return false
	}

	if ip4 := ip.To4(); ip4 != nil {
		// 排除 0.0.0.0/8 (当前网络)
		if ip4[0] == 0 {
			return false
		}
		// 排除 100.64.0.0/10 (运营商级 NAT，CGNAT)
		if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
			return false
		}
		// 排除 240.0.0.0/4 (保留)
		if ip4[0] >= 240 {
			return false
		}
	}
	return true
}
