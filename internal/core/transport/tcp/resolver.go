package tcp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
)

// resolvConf 系统 DNS 配置文件
const resolvConf = "/etc/resolv.conf"

// Resolver 把主机名解析为 IP
type Resolver interface {
	LookupIP(ctx context.Context, host string, family multiaddr.Family) ([]net.IP, error)
}

// DNSResolver 基于 miekg/dns 的解析器
type DNSResolver struct {
	client  *dns.Client
	servers []string
}

var _ Resolver = (*DNSResolver)(nil)

// NewDNSResolver 创建解析器
//
// servers 为 host:port 列表；为空时从 /etc/resolv.conf 读取，读取失败则使用系统解析器。
func NewDNSResolver(servers []string, timeout time.Duration) *DNSResolver {
	if len(servers) == 0 {
		if cfg, err := dns.ClientConfigFromFile(resolvConf); err == nil {
			for _, s := range cfg.Servers {
				servers = append(servers, net.JoinHostPort(s, cfg.Port))
			}
		}
	}
	return &DNSResolver{
		client:  &dns.Client{Net: "udp", Timeout: timeout},
		servers: servers,
	}
}

// Servers 返回使用的 DNS 服务器
func (r *DNSResolver) Servers() []string {
	return r.servers
}

// LookupIP 查询 A（dns4）、AAAA（dns6）或两者（dns）
func (r *DNSResolver) LookupIP(ctx context.Context, host string, family multiaddr.Family) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	if len(r.servers) == 0 {
		return lookupSystem(ctx, host, family)
	}

	var qtypes []uint16
	switch family {
	case multiaddr.FamilyDNS4:
		qtypes = []uint16{dns.TypeA}
	case multiaddr.FamilyDNS6:
		qtypes = []uint16{dns.TypeAAAA}
	default:
		qtypes = []uint16{dns.TypeA, dns.TypeAAAA}
	}

	var (
		ips     []net.IP
		lastErr error
	)
	for _, qt := range qtypes {
		found, err := r.query(ctx, host, qt)
		if err != nil {
			lastErr = err
			continue
		}
		ips = append(ips, found...)
	}
	if len(ips) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: %s", ErrNoAddresses, host)
	}
	return ips, nil
}

// query 依次询问每个服务器，第一个成功应答生效
func (r *DNSResolver) query(ctx context.Context, host string, qtype uint16) ([]net.IP, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("%w: %s %s: %s", ErrResolve, dns.TypeToString[qtype], host, dns.RcodeToString[resp.Rcode])
		}
		var ips []net.IP
		for _, rr := range resp.Answer {
			switch v := rr.(type) {
			case *dns.A:
				ips = append(ips, v.A)
			case *dns.AAAA:
				ips = append(ips, v.AAAA)
			}
		}
		return ips, nil
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrResolve, host, lastErr)
}

func lookupSystem(ctx context.Context, host string, family multiaddr.Family) ([]net.IP, error) {
	network := "ip"
	switch family {
	case multiaddr.FamilyDNS4:
		network = "ip4"
	case multiaddr.FamilyDNS6:
		network = "ip6"
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, network, strings.TrimSuffix(host, "."))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolve, err)
	}
	return ips, nil
}
