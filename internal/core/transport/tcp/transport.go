package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("tcp")

const (
	// DefaultConnectTimeout 默认连接超时
	DefaultConnectTimeout = 15 * time.Second

	// defaultResolveTimeout 单次 DNS 查询超时
	defaultResolveTimeout = 5 * time.Second
)

// ============================================================================
//                              Dialer
// ============================================================================

// Dialer TCP 拨号器，可并发使用
type Dialer struct {
	connectTimeout time.Duration
	keepAlive      time.Duration
	nameServers    []string
	resolver       Resolver
}

// Option 拨号器选项
type Option func(*Dialer)

// WithConnectTimeout 连接超时（含解析）
func WithConnectTimeout(d time.Duration) Option {
	return func(dl *Dialer) {
		if d > 0 {
			dl.connectTimeout = d
		}
	}
}

// WithKeepAlive TCP keepalive 周期
func WithKeepAlive(d time.Duration) Option {
	return func(dl *Dialer) {
		dl.keepAlive = d
	}
}

// WithNameServers 指定 DNS 服务器（host:port）
func WithNameServers(servers ...string) Option {
	return func(dl *Dialer) {
		dl.nameServers = servers
	}
}

// WithResolver 替换解析器
func WithResolver(r Resolver) Option {
	return func(dl *Dialer) {
		dl.resolver = r
	}
}

// NewDialer 创建拨号器
func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{connectTimeout: DefaultConnectTimeout}
	for _, opt := range opts {
		opt(d)
	}
	if d.resolver == nil {
		d.resolver = NewDNSResolver(d.nameServers, defaultResolveTimeout)
	}
	return d
}

// ConnectTimeout 返回连接超时
func (d *Dialer) ConnectTimeout() time.Duration {
	return d.connectTimeout
}

// CanDial 检查地址是否为 <ip4|ip6|dns4|dns6>/tcp/<port>
func CanDial(addr multiaddr.Multiaddr) error {
	if addr == nil {
		return fmt.Errorf("%w: nil address", types.ErrUnsupportedAddress)
	}
	_, _, family, err := multiaddr.DialArgs(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrUnsupportedAddress, err)
	}
	if family == multiaddr.FamilyDNS {
		return fmt.Errorf("%w: %s: use dns4 or dns6", types.ErrUnsupportedAddress, addr)
	}
	return nil
}

// Dial 建立连接
//
// 不支持的地址返回 types.ErrUnsupportedAddress 且不发起连接；
// 解析失败、拒绝、超时返回 types.ErrConnect。
func (d *Dialer) Dial(ctx context.Context, addr multiaddr.Multiaddr) (net.Conn, error) {
	if err := CanDial(addr); err != nil {
		return nil, err
	}
	host, port, family, _ := multiaddr.DialArgs(addr)

	ctx, cancel := context.WithTimeout(ctx, d.connectTimeout)
	defer cancel()

	var ips []net.IP
	if family.IsDNS() {
		resolved, err := d.resolver.LookupIP(ctx, host, family)
		if err != nil {
			if errors.Is(err, types.ErrConnect) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: resolve %s: %w", types.ErrConnect, host, err)
		}
		ips = resolved
	} else {
		ips = []net.IP{net.ParseIP(host)}
	}

	nd := &net.Dialer{KeepAlive: d.keepAlive}
	var lastErr error
	for _, ip := range ips {
		target := net.JoinHostPort(ip.String(), strconv.Itoa(port))
		conn, err := nd.DialContext(ctx, "tcp", target)
		if err == nil {
			log.Debug("TCP 连接成功", "addr", addr.String(), "remote", target)
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %v", types.ErrConnect, addr, lastErr)
}
