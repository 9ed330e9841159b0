package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/pkg/lib/proto"
)

func TestPublicKey_Ed25519Layout(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = 0xAA
	pk := &PublicKey{Type: KeyTypeEd25519, Data: raw}

	b := pk.Marshal()
	// 08 01 12 20 是所有 libp2p ed25519 公钥的固定前缀
	assert.Equal(t, []byte{0x08, 0x01, 0x12, 0x20}, b[:4])
	assert.Len(t, b, 36)

	var got PublicKey
	require.NoError(t, got.Unmarshal(b))
	assert.Equal(t, *pk, got)
}

func TestPublicKey_RSATypeZeroIsWritten(t *testing.T) {
	b := (&PublicKey{Type: KeyTypeRSA, Data: []byte{1}}).Marshal()
	assert.Equal(t, []byte{0x08, 0x00, 0x12, 0x01, 0x01}, b)
}

func TestPublicKey_MissingField(t *testing.T) {
	var k PublicKey
	err := k.Unmarshal(proto.AppendVarint(nil, 1, 1))
	assert.ErrorIs(t, err, proto.ErrMalformed)
}

func TestKeyType_String(t *testing.T) {
	assert.Equal(t, "Secp256k1", KeyTypeSecp256k1.String())
	assert.Equal(t, "KeyType(9)", KeyType(9).String())
}
