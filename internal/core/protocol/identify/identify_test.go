package identify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/multistream"
	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	pb "github.com/dep2p/go-crawler/pkg/lib/proto/identify"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

// serve 让 b 端以 reply 应答 /ipfs/id/1.0.0；reply 为 nil 时协商后不回复
func serve(t *testing.T, reply []byte, supported ...types.ProtocolID) *mplex.Multiplexer {
	t.Helper()
	a, b := mplex.NewPair()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	b.ReceiveStreams(mplex.HandlerFunc[struct{}](func(ctx context.Context, s mplex.Stream) (struct{}, error) {
		dec := framing.NewVarint(0).NewDecoder(s)
		if _, err := multistream.Listen(dec, s, supported...); err != nil {
			return struct{}{}, err
		}
		if reply == nil {
			<-ctx.Done()
			return struct{}{}, ctx.Err()
		}
		_, err := s.Write(framing.NewVarint(0).Encode(reply))
		return struct{}{}, err
	}))
	return a
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestHandler_Success(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	pubBytes, err := crypto.MarshalPublicKey(priv.GetPublic())
	require.NoError(t, err)

	listen := multiaddr.StringCast("/ip4/203.0.113.5/tcp/30333")
	msg := &pb.Identify{
		PublicKey:       pubBytes,
		ListenAddrs:     [][]byte{listen.Bytes(), {0xff, 0xff}},
		Protocols:       []string{"/ipfs/id/1.0.0", "/ipfs/kad/1.0.0"},
		ProtocolVersion: "/substrate/1.0",
		AgentVersion:    "substrate-node/2.0",
	}
	a := serve(t, msg.Marshal(), protocolids.Identify)

	info, err := mplex.NewStream(testContext(t), a, NewHandler(time.Second))
	require.NoError(t, err)

	assert.Equal(t, "substrate-node/2.0", info.AgentVersion)
	assert.Equal(t, "/substrate/1.0", info.ProtocolVersion)
	assert.Equal(t, []string{"/ipfs/id/1.0.0", "/ipfs/kad/1.0.0"}, info.Protocols)
	require.Len(t, info.ListenAddrs, 1)
	assert.True(t, listen.Equal(info.ListenAddrs[0]))

	wantID, err := crypto.IDFromPrivateKey(priv)
	require.NoError(t, err)
	assert.Equal(t, wantID, info.PeerID)
	assert.True(t, info.PublicKey.Equals(priv.GetPublic()))
}

func TestHandler_Timeout(t *testing.T) {
	a := serve(t, nil, protocolids.Identify)

	start := time.Now()
	_, err := mplex.NewStream(testContext(t), a, NewHandler(100*time.Millisecond))
	assert.ErrorIs(t, err, types.ErrDataTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestHandler_Rejected(t *testing.T) {
	a := serve(t, nil, protocolids.Ping)

	_, err := mplex.NewStream(testContext(t), a, NewHandler(time.Second))
	assert.ErrorIs(t, err, types.ErrNegotiation)
}

func TestHandler_ParentCanceled(t *testing.T) {
	a := serve(t, nil, protocolids.Identify)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := mplex.NewStream(ctx, a, NewHandler(time.Minute))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, types.ErrDataTimeout)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte{0x0a, 0x05, 0x01})
	assert.ErrorIs(t, err, types.ErrProtocolViolation)
}

func TestLocalInfo(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	id, err := crypto.IDFromPrivateKey(priv)
	require.NoError(t, err)

	b, err := LocalInfo(priv, "", nil)
	require.NoError(t, err)
	info, err := Parse(b)
	require.NoError(t, err)

	assert.Equal(t, DefaultAgentVersion, info.AgentVersion)
	assert.Equal(t, protocolids.ProtocolVersion, info.ProtocolVersion)
	assert.Equal(t, []string{"/ipfs/ping/1.0.0", "/ipfs/id/1.0.0", "/ipfs/kad/1.0.0"}, info.Protocols)
	assert.Equal(t, id, info.PeerID)
	require.Len(t, info.ListenAddrs, 1)
	got, ok := multiaddr.GetPeerID(info.ListenAddrs[0])
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Nil(t, info.ObservedAddr)
}
