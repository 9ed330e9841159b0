package dht

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/pkg/lib/proto"
)

func TestMessage_FindNodeRequest(t *testing.T) {
	key := []byte("target")
	b := (&Message{Type: MessageFindNode, Key: key}).Marshal()
	assert.Equal(t, append([]byte{0x08, 0x04, 0x12, 0x06}, key...), b)
}

func TestMessage_CloserPeers(t *testing.T) {
	in := &Message{
		Type: MessageFindNode,
		CloserPeers: []Peer{
			{ID: []byte{0x00, 0x01, 0xAA}, Addrs: [][]byte{{0x04, 1, 2, 3, 4}}, Connection: CanConnect},
			{ID: []byte{0x00, 0x01, 0xBB}},
		},
		ClusterLevelRaw: 2,
	}

	var out Message
	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in.CloserPeers, out.CloserPeers)
	assert.Equal(t, MessageFindNode, out.Type)
	assert.Equal(t, int32(2), out.ClusterLevelRaw)
}

func TestMessage_SkipsRecord(t *testing.T) {
	b := (&Message{Type: MessageFindNode}).Marshal()
	b = proto.AppendBytes(b, 3, []byte{0x0a, 0x01, 0x01})

	var out Message
	require.NoError(t, out.Unmarshal(b))
	assert.Empty(t, out.CloserPeers)
}

func TestMessage_BrokenPeer(t *testing.T) {
	b := proto.AppendBytes(nil, 8, []byte{0x0a, 0x05, 0x01})
	var out Message
	assert.ErrorIs(t, out.Unmarshal(b), proto.ErrMalformed)
}
