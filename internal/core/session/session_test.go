package session

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	pbdht "github.com/dep2p/go-crawler/pkg/lib/proto/dht"
	pbid "github.com/dep2p/go-crawler/pkg/lib/proto/identify"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

var (
	target = multiaddr.StringCast("/ip4/203.0.113.5/tcp/30333")
	addrA  = multiaddr.StringCast("/ip4/198.51.100.7/tcp/30333")
	addrB  = multiaddr.StringCast("/dns4/boot.example.net/tcp/30333")
)

func newKey(t *testing.T) crypto.PrivateKey {
	t.Helper()
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	return priv
}

func startRemote(t *testing.T, configure func(r *Remote)) *Remote {
	t.Helper()
	r := NewRemote(newKey(t))
	if configure != nil {
		configure(r)
	}
	require.NoError(t, r.Start())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func identifyReply(t *testing.T, priv crypto.PrivateKey, agent string) []byte {
	t.Helper()
	pub, err := crypto.MarshalPublicKey(priv.GetPublic())
	require.NoError(t, err)
	m := &pbid.Identify{
		PublicKey:       pub,
		ListenAddrs:     [][]byte{target.Bytes()},
		Protocols:       []string{"/ipfs/id/1.0.0", "/ipfs/kad/1.0.0"},
		ProtocolVersion: "/substrate/1.0",
		AgentVersion:    agent,
	}
	return m.Marshal()
}

func closestReply(t *testing.T, addrs ...multiaddr.Multiaddr) []byte {
	t.Helper()
	m := &pbdht.Message{Type: pbdht.MessageFindNode}
	for _, a := range addrs {
		id, err := crypto.IDFromPrivateKey(newKey(t))
		require.NoError(t, err)
		m.CloserPeers = append(m.CloserPeers, pbdht.Peer{ID: id.Bytes(), Addrs: [][]byte{a.Bytes()}})
	}
	return m.Marshal()
}

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.SessionTimeout = 5 * time.Second
	cfg.IdentifyTimeout = 2 * time.Second
	cfg.KadTimeout = 2 * time.Second
	return cfg
}

func newTestDialer(t *testing.T, r *Remote, opts ...Option) *Dialer {
	t.Helper()
	opts = append([]Option{WithConfig(fastConfig()), WithDialFunc(r.DialFunc())}, opts...)
	d, err := NewDialer(newKey(t), opts...)
	require.NoError(t, err)
	return d
}

// ============================================================================
//                              Dial
// ============================================================================

func TestDial_FullScenario(t *testing.T) {
	r := startRemote(t, func(remote *Remote) {
		remote.Identify = identifyReply(t, remote.priv, "substrate-node/2.0")
		remote.Closest = [][]byte{closestReply(t, addrA, addrB)}
		remote.Ping = true
	})

	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	d := newTestDialer(t, r, WithClock(mock))

	res, err := d.Dial(context.Background(), target)
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, "substrate-node/2.0", s.Agent)
	assert.Equal(t, []string{"/ipfs/id/1.0.0", "/ipfs/kad/1.0.0"}, s.Protocols)
	assert.Equal(t, "/substrate/1.0", s.ProtocolVersion)
	assert.Equal(t, r.PeerID(), s.PeerID)
	assert.Equal(t, OutcomeSuccess, s.Outcome)
	assert.Equal(t, 2, s.ClosestPeers)
	assert.Equal(t, types.DirOutbound, s.Direction)
	assert.True(t, target.Equal(s.Address))
	assert.NotEmpty(t, s.SessionID)
	assert.Nil(t, s.Chain)
	assert.Equal(t, mock.Now(), s.ConnectedAt)
	assert.Equal(t, mock.Now(), s.DisconnectedAt)

	require.Len(t, res.Discovered, 2)
	assert.True(t, addrA.Equal(res.Discovered[0]))
	assert.True(t, addrB.Equal(res.Discovered[1]))

	// 对端打开的 ping 流由应答器回显
	select {
	case err := <-r.Pinged():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ping not answered")
	}
}

func TestDial_NeverCompletesHandshake(t *testing.T) {
	r := startRemote(t, func(remote *Remote) {
		remote.StallHandshake = true
	})
	cfg := fastConfig()
	cfg.SessionTimeout = 300 * time.Millisecond
	d := newTestDialer(t, r, WithConfig(cfg))

	start := time.Now()
	res, err := d.Dial(context.Background(), target)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDial_IdentifyWithoutKad(t *testing.T) {
	r := startRemote(t, func(remote *Remote) {
		remote.Identify = identifyReply(t, remote.priv, "substrate-node/2.0")
	})
	cfg := fastConfig()
	cfg.KadTimeout = 200 * time.Millisecond
	d := newTestDialer(t, r, WithConfig(cfg))

	res, err := d.Dial(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Summary.Outcome)
	assert.Equal(t, "substrate-node/2.0", res.Summary.Agent)
	assert.Equal(t, []string{"/ipfs/id/1.0.0", "/ipfs/kad/1.0.0"}, res.Summary.Protocols)
	assert.Zero(t, res.Summary.ClosestPeers)
	assert.Empty(t, res.Discovered)
}

// kad 协商被拒绝只影响 kad，会话仍以 identify 结果结束
func TestDial_KadRejected(t *testing.T) {
	r := startRemote(t, func(remote *Remote) {
		remote.Identify = identifyReply(t, remote.priv, "substrate-node/2.0")
		remote.Closest = [][]byte{closestReply(t, addrA)}
		remote.Reject = []types.ProtocolID{protocolids.Kad}
	})
	d := newTestDialer(t, r)

	res, err := d.Dial(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Summary.Outcome)
	assert.Equal(t, r.PeerID(), res.Summary.PeerID)
	assert.Equal(t, "substrate-node/2.0", res.Summary.Agent)
	assert.Zero(t, res.Summary.ClosestPeers)
	assert.Empty(t, res.Discovered)
}

func TestDial_NoProtocolData(t *testing.T) {
	r := startRemote(t, nil)
	cfg := fastConfig()
	cfg.IdentifyTimeout = 100 * time.Millisecond
	cfg.KadTimeout = 100 * time.Millisecond
	d := newTestDialer(t, r, WithConfig(cfg))

	res, err := d.Dial(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Summary.Outcome)
	// 握手已认证对端身份
	assert.Equal(t, r.PeerID(), res.Summary.PeerID)
	assert.Empty(t, res.Summary.Agent)
}

func TestDial_SessionTimeoutKeepsAccumulated(t *testing.T) {
	r := startRemote(t, func(remote *Remote) {
		remote.Identify = identifyReply(t, remote.priv, "substrate-node/2.0")
	})
	cfg := fastConfig()
	cfg.SessionTimeout = 500 * time.Millisecond
	cfg.KadTimeout = time.Minute
	d := newTestDialer(t, r, WithConfig(cfg))

	start := time.Now()
	res, err := d.Dial(context.Background(), target)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, OutcomePartial, res.Summary.Outcome)
	assert.Equal(t, "substrate-node/2.0", res.Summary.Agent)
}

func TestDial_ExpectedPeerMismatch(t *testing.T) {
	r := startRemote(t, nil)
	d := newTestDialer(t, r)

	other, err := crypto.IDFromPrivateKey(newKey(t))
	require.NoError(t, err)
	_, err = d.Dial(context.Background(), multiaddr.Join(target, other))
	assert.ErrorIs(t, err, types.ErrHandshake)
}

func TestDial_ExpectedPeerMatch(t *testing.T) {
	r := startRemote(t, func(remote *Remote) {
		remote.Identify = identifyReply(t, remote.priv, "substrate-node/2.0")
		remote.Closest = [][]byte{closestReply(t, addrA)}
	})
	d := newTestDialer(t, r)

	res, err := d.Dial(context.Background(), multiaddr.Join(target, r.PeerID()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Summary.Outcome)
}

func TestDial_UnsupportedAddress(t *testing.T) {
	called := false
	d, err := NewDialer(newKey(t), WithDialFunc(func(context.Context, multiaddr.Multiaddr) (net.Conn, error) {
		called = true
		return nil, errors.New("unexpected dial")
	}))
	require.NoError(t, err)

	_, err = d.Dial(context.Background(), multiaddr.StringCast("/ip4/203.0.113.5/udp/30333"))
	assert.ErrorIs(t, err, types.ErrUnsupportedAddress)
	assert.False(t, called)
}

func TestDial_ConnectError(t *testing.T) {
	d, err := NewDialer(newKey(t), WithDialFunc(func(context.Context, multiaddr.Multiaddr) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}))
	require.NoError(t, err)

	_, err = d.Dial(context.Background(), target)
	assert.ErrorIs(t, err, types.ErrConnect)
}

func TestDial_SecioRejected(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// 只回头部与 na
		buf := make([]byte, 4096)
		_, _ = conn.Read(buf)
		_, _ = conn.Write(append(multistreamLine("/multistream/1.0.0"), multistreamLine("na")...))
		_, _ = conn.Read(buf)
	}()

	d, err := NewDialer(newKey(t), WithConfig(fastConfig()), WithDialFunc(func(ctx context.Context, _ multiaddr.Multiaddr) (net.Conn, error) {
		var nd net.Dialer
		return nd.DialContext(ctx, "tcp", ln.Addr().String())
	}))
	require.NoError(t, err)

	_, err = d.Dial(context.Background(), target)
	assert.ErrorIs(t, err, types.ErrNegotiation)
}

func multistreamLine(s string) []byte {
	return append([]byte{byte(len(s) + 1)}, s+"\n"...)
}

// ============================================================================
//                              Session
// ============================================================================

func TestSession_States(t *testing.T) {
	r := startRemote(t, func(remote *Remote) {
		remote.Identify = identifyReply(t, remote.priv, "substrate-node/2.0")
		remote.Closest = [][]byte{closestReply(t, addrA)}
	})
	d := newTestDialer(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := d.Open(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, StateMplexActive, s.State())

	require.NoError(t, s.Run(ctx))
	assert.ErrorIs(t, s.Run(ctx), ErrAlreadyRun)

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.NoError(t, s.Close())
	assert.ErrorIs(t, s.Run(ctx), ErrSessionClosed)

	res := s.Result()
	assert.Equal(t, OutcomeSuccess, res.Summary.Outcome)
	require.Len(t, res.Discovered, 1)
}

func TestNewDialer_Validation(t *testing.T) {
	_, err := NewDialer(nil)
	assert.ErrorIs(t, err, ErrNilKey)

	cfg := DefaultConfig()
	cfg.SessionTimeout = 0
	_, err = NewDialer(newKey(t), WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewDialer(newKey(t), WithConfig(nil))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "mplex-active", StateMplexActive.String())
	assert.Equal(t, "state(9)", State(9).String())
}
