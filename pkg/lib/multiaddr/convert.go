package multiaddr

import (
	"fmt"
	"net"
	"strconv"
)

// Family 拨号目标的主机类型
type Family int

const (
	FamilyIP4 Family = iota
	FamilyIP6
	FamilyDNS4
	FamilyDNS6
	FamilyDNS
)

// IsDNS 主机部分是否需要解析
func (f Family) IsDNS() bool {
	return f >= FamilyDNS4
}

// DialArgs 取出 TCP 拨号所需的主机、端口与主机类型
//
// 只接受 <ip4|ip6|dns|dns4|dns6>/tcp/<port> 开头的地址，后续组件（如 /p2p）被忽略。
func DialArgs(m Multiaddr) (string, int, Family, error) {
	host, rest := SplitFirst(m)
	if rest == nil {
		return "", 0, 0, fmt.Errorf("%w: %s has no transport", ErrInvalidMultiaddr, m)
	}
	var family Family
	switch host.proto.Code {
	case P_IP4:
		family = FamilyIP4
	case P_IP6:
		family = FamilyIP6
	case P_DNS4:
		family = FamilyDNS4
	case P_DNS6:
		family = FamilyDNS6
	case P_DNS:
		family = FamilyDNS
	default:
		return "", 0, 0, fmt.Errorf("%w: unsupported host protocol %s", ErrInvalidProtocol, host.proto.Name)
	}

	tcp, _ := SplitFirst(rest)
	if tcp.proto.Code != P_TCP {
		return "", 0, 0, fmt.Errorf("%w: %s is not a tcp address", ErrInvalidProtocol, m)
	}
	port, err := strconv.Atoi(tcp.Value())
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: port: %v", ErrInvalidMultiaddr, err)
	}
	return host.Value(), port, family, nil
}

// ToTCPAddr 转换为 *net.TCPAddr（仅 ip4/ip6）
func ToTCPAddr(m Multiaddr) (*net.TCPAddr, error) {
	host, port, family, err := DialArgs(m)
	if err != nil {
		return nil, err
	}
	if family.IsDNS() {
		return nil, fmt.Errorf("%w: %s needs resolution", ErrInvalidMultiaddr, m)
	}
	return &net.TCPAddr{IP: net.ParseIP(host), Port: port}, nil
}

// FromTCPAddr 从 *net.TCPAddr 构造
func FromTCPAddr(addr *net.TCPAddr) (Multiaddr, error) {
	if addr == nil {
		return nil, fmt.Errorf("%w: nil tcp addr", ErrInvalidMultiaddr)
	}
	proto := "ip6"
	if addr.IP.To4() != nil {
		proto = "ip4"
	}
	return NewMultiaddr(fmt.Sprintf("/%s/%s/tcp/%d", proto, addr.IP.String(), addr.Port))
}

// FromNetAddr 从 net.Addr 构造（仅支持 TCP）
func FromNetAddr(addr net.Addr) (Multiaddr, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return FromTCPAddr(a)
	default:
		return nil, fmt.Errorf("%w: unsupported net.Addr %T", ErrInvalidMultiaddr, addr)
	}
}
