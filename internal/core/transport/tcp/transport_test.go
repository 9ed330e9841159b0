package tcp

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	"github.com/dep2p/go-crawler/pkg/types"
)

func listen(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	return ln, ln.Addr().(*net.TCPAddr).Port
}

// dnsServer 在回环 UDP 上应答 A 记录的测试 DNS 服务器
func dnsServer(t *testing.T, records map[string]string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)
			q := r.Question[0]
			ip, ok := records[q.Name]
			switch {
			case !ok:
				m.Rcode = dns.RcodeNameError
			case q.Qtype == dns.TypeA:
				m.Answer = append(m.Answer, &dns.A{
					Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
					A:   net.ParseIP(ip),
				})
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestDial_IP4(t *testing.T) {
	_, port := listen(t)
	addr := multiaddr.StringCast("/ip4/127.0.0.1/tcp/" + strconv.Itoa(port))

	conn, err := NewDialer().Dial(context.Background(), addr)
	require.NoError(t, err)
	conn.Close()
}

func TestDial_IgnoresTrailingPeerID(t *testing.T) {
	_, port := listen(t)
	addr := multiaddr.StringCast("/ip4/127.0.0.1/tcp/" + strconv.Itoa(port) + "/p2p/QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N")

	conn, err := NewDialer().Dial(context.Background(), addr)
	require.NoError(t, err)
	conn.Close()
}

func TestDial_DNS4(t *testing.T) {
	_, port := listen(t)
	server := dnsServer(t, map[string]string{"boot.crawler.test.": "127.0.0.1"})
	addr := multiaddr.StringCast("/dns4/boot.crawler.test/tcp/" + strconv.Itoa(port))

	conn, err := NewDialer(WithNameServers(server)).Dial(context.Background(), addr)
	require.NoError(t, err)
	conn.Close()
}

func TestDial_DNSFailure(t *testing.T) {
	server := dnsServer(t, nil)
	addr := multiaddr.StringCast("/dns4/missing.crawler.test/tcp/30333")

	_, err := NewDialer(WithNameServers(server)).Dial(context.Background(), addr)
	assert.ErrorIs(t, err, ErrResolve)
	assert.ErrorIs(t, err, types.ErrConnect)
}

func TestDial_Unsupported(t *testing.T) {
	for _, s := range []string{
		"/ip4/127.0.0.1/udp/30333",
		"/ip4/127.0.0.1",
		"/dns/example.com/tcp/30333",
		"/p2p/QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N",
	} {
		_, err := NewDialer().Dial(context.Background(), multiaddr.StringCast(s))
		assert.ErrorIs(t, err, types.ErrUnsupportedAddress, s)
	}
	assert.ErrorIs(t, CanDial(nil), types.ErrUnsupportedAddress)
}

func TestDial_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = NewDialer().Dial(context.Background(), multiaddr.StringCast("/ip4/127.0.0.1/tcp/"+strconv.Itoa(port)))
	assert.ErrorIs(t, err, types.ErrConnect)
}

func TestDial_Timeout(t *testing.T) {
	// 解析器阻塞到超时
	blocking := resolverFunc(func(ctx context.Context, host string, family multiaddr.Family) ([]net.IP, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	d := NewDialer(WithConnectTimeout(50*time.Millisecond), WithResolver(blocking))

	start := time.Now()
	_, err := d.Dial(context.Background(), multiaddr.StringCast("/dns4/slow.test/tcp/1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, types.ErrConnect)
	assert.Less(t, time.Since(start), 5*time.Second)
}

type resolverFunc func(ctx context.Context, host string, family multiaddr.Family) ([]net.IP, error)

func (f resolverFunc) LookupIP(ctx context.Context, host string, family multiaddr.Family) ([]net.IP, error) {
	return f(ctx, host, family)
}
