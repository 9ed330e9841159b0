package types

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerID_IdentityRoundTrip(t *testing.T) {
	key := []byte{0x08, 0x01, 0x12, 0x20}
	key = append(key, make([]byte, 32)...)

	id, err := IDFromBytes(EncodeMultihash(MhIdentity, key))
	require.NoError(t, err)
	// identity 多重哈希包裹的 ed25519 公钥总是以 12D3KooW 开头
	assert.Equal(t, "12D3KooW", id.String()[:8])

	parsed, err := Decode(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.True(t, id.MatchesPublicKey(key, sha256.Sum256))
	assert.False(t, id.MatchesPublicKey(key[1:], sha256.Sum256))
}

func TestPeerID_Sha256(t *testing.T) {
	key := make([]byte, 300)
	sum := sha256.Sum256(key)
	id, err := IDFromBytes(EncodeMultihash(MhSha2_256, sum[:]))
	require.NoError(t, err)
	assert.Equal(t, "Qm", id.String()[:2])
	assert.True(t, id.MatchesPublicKey(key, sha256.Sum256))
}

func TestPeerID_Invalid(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrEmptyPeerID)

	_, err = Decode("0OIl")
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	_, err = IDFromBytes([]byte{0x12, 0x20, 0x01})
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	_, err = IDFromBytes(EncodeMultihash(0x13, make([]byte, 64)))
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	assert.ErrorIs(t, PeerID("").Validate(), ErrEmptyPeerID)
}

func TestPeerID_ShortString(t *testing.T) {
	key := append([]byte{0x08, 0x01, 0x12, 0x20}, make([]byte, 32)...)
	id := PeerID(EncodeMultihash(MhIdentity, key))
	s := id.ShortString()
	assert.Len(t, s, 9)
	assert.Equal(t, id.String()[:2], s[:2])
}
