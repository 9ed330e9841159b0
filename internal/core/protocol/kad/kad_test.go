package kad

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/multistream"
	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	pb "github.com/dep2p/go-crawler/pkg/lib/proto/dht"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

var (
	peerA = types.PeerID(types.EncodeMultihash(types.MhSha2_256, make([]byte, 32)))
	addrA = multiaddr.StringCast("/ip4/198.51.100.1/tcp/30333")
	addrB = multiaddr.StringCast("/dns4/bootnode.example.org/tcp/30334")
)

// serve 让 b 端应答 FIND_NODE：读取请求后依次写出 replies，closeAfter 为 true 时关闭
func serve(t *testing.T, replies [][]byte, closeAfter bool) (*mplex.Multiplexer, <-chan *pb.Message) {
	t.Helper()
	a, b := mplex.NewPair()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	requests := make(chan *pb.Message, 1)
	b.ReceiveStreams(mplex.HandlerFunc[struct{}](func(ctx context.Context, s mplex.Stream) (struct{}, error) {
		dec := framing.NewVarint(0).NewDecoder(s)
		if _, err := multistream.Listen(dec, s, protocolids.Kad); err != nil {
			return struct{}{}, err
		}
		raw, err := dec.Next()
		if err != nil {
			return struct{}{}, err
		}
		var req pb.Message
		if err := req.Unmarshal(raw); err != nil {
			return struct{}{}, err
		}
		requests <- &req

		codec := framing.NewVarint(0)
		for _, r := range replies {
			if _, err := s.Write(codec.Encode(r)); err != nil {
				return struct{}{}, err
			}
		}
		if !closeAfter {
			<-ctx.Done()
			return struct{}{}, ctx.Err()
		}
		return struct{}{}, nil
	}))
	return a, requests
}

func response(peers ...pb.Peer) []byte {
	m := &pb.Message{Type: pb.MessageFindNode, CloserPeers: peers}
	return m.Marshal()
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestHandler_SkipsPlaceholderAndParses(t *testing.T) {
	a, requests := serve(t, [][]byte{
		{0x1a, 0x00},
		response(pb.Peer{ID: peerA.Bytes(), Addrs: [][]byte{addrA.Bytes(), addrB.Bytes(), {0xde, 0xad}}}),
	}, true)

	res, err := mplex.NewStream(testContext(t), a, NewHandler(time.Second))
	require.NoError(t, err)

	req := <-requests
	assert.Equal(t, pb.MessageFindNode, req.Type)
	assert.NotEmpty(t, req.Key)

	assert.Equal(t, 1, res.Responses)
	require.Len(t, res.Peers, 1)
	assert.Equal(t, peerA, res.Peers[0].ID)
	addrs := res.Addrs()
	require.Len(t, addrs, 2)
	assert.True(t, addrs[0].Equal(addrA))
	assert.True(t, addrs[1].Equal(addrB))
}

func TestHandler_AtMostMaxResponses(t *testing.T) {
	var replies [][]byte
	for i := 0; i < 5; i++ {
		replies = append(replies, response(pb.Peer{ID: peerA.Bytes(), Addrs: [][]byte{addrA.Bytes()}}))
	}
	a, _ := serve(t, replies, false)

	res, err := mplex.NewStream(testContext(t), a, NewHandler(time.Second))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxResponses, res.Responses)
	assert.Len(t, res.Peers, DefaultMaxResponses)
	// 重复地址只保留一次
	assert.Len(t, res.Addrs(), 1)
}

func TestHandler_PartialBeforeTimeout(t *testing.T) {
	a, _ := serve(t, [][]byte{response(pb.Peer{ID: peerA.Bytes(), Addrs: [][]byte{addrA.Bytes()}})}, false)

	res, err := mplex.NewStream(testContext(t), a, NewHandler(100*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Responses)
}

func TestHandler_NoResponse(t *testing.T) {
	a, _ := serve(t, nil, false)

	_, err := mplex.NewStream(testContext(t), a, NewHandler(100*time.Millisecond))
	assert.ErrorIs(t, err, types.ErrDataTimeout)
}

func TestHandler_OnlyPlaceholders(t *testing.T) {
	a, _ := serve(t, [][]byte{{0x1a, 0x00}, {}, {0x08}}, true)

	_, err := mplex.NewStream(testContext(t), a, NewHandler(time.Second))
	assert.ErrorIs(t, err, types.ErrDataTimeout)
}

func TestHandler_FixedTarget(t *testing.T) {
	a, requests := serve(t, [][]byte{response(pb.Peer{ID: peerA.Bytes(), Addrs: [][]byte{addrA.Bytes()}})}, true)

	h := NewHandler(time.Second)
	h.Target = []byte("target-key")
	res, err := mplex.NewStream(testContext(t), a, h)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Responses)
	assert.Equal(t, []byte("target-key"), (<-requests).Key)
}

func TestParse_SkipsInvalidPeers(t *testing.T) {
	peers, err := Parse(response(
		pb.Peer{ID: []byte{0xff}, Addrs: [][]byte{addrA.Bytes()}},
		pb.Peer{ID: peerA.Bytes(), Addrs: [][]byte{addrB.Bytes()}},
	))
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, peerA, peers[0].ID)

	_, err = Parse([]byte{0x08})
	assert.ErrorIs(t, err, types.ErrProtocolViolation)
}
