package secio

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/types"
)

func TestSecureConn_ReadWrite(t *testing.T) {
	a, b := establishedPair(t)
	ca := a.ch.Conn(a.r, a.conn)
	cb := b.ch.Conn(b.r, b.conn)

	msgs := []string{"hello", "", "secio over tcp", "last"}
	go func() {
		for _, m := range msgs {
			_, _ = ca.Write([]byte(m))
		}
	}()

	want := "hellosecio over tcplast"
	got := make([]byte, len(want))
	_, err := io.ReadFull(cb, got)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))

	// 反方向
	go func() {
		_, _ = cb.Write([]byte("pong"))
	}()
	reply := make([]byte, 4)
	_, err = io.ReadFull(ca, reply)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(reply))
}

func TestFrameDecoder_BeforeEstablished(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	ch, err := New(priv)
	require.NoError(t, err)

	_, err = ch.FrameDecoder().Decode([]byte("ciphertext"))
	assert.ErrorIs(t, err, ErrNotEstablished)

	_, err = ch.Encoder().Encode([]byte("plaintext"))
	assert.ErrorIs(t, err, ErrNotEstablished)

	assert.ErrorIs(t, ch.WriteNonce(io.Discard), ErrNotEstablished)
	assert.False(t, ch.IsEstablished())
}

func TestFrameDecoder_Tampered(t *testing.T) {
	a, b := establishedPair(t)

	frame, err := a.ch.Encoder().Encode([]byte("payload"))
	require.NoError(t, err)

	// 去掉 4 字节前缀后翻转一位密文
	body := append([]byte(nil), frame[4:]...)
	body[0] ^= 0x01
	_, err = b.ch.FrameDecoder().Decode(body)
	assert.ErrorIs(t, err, ErrBadMAC)
	assert.ErrorIs(t, err, types.ErrHandshake)

	_, err = b.ch.FrameDecoder().Decode([]byte{1, 2})
	assert.ErrorIs(t, err, ErrBadMAC)
}

func TestFrameDecoder_Sequence(t *testing.T) {
	a, b := establishedPair(t)
	enc, dec := a.ch.Encoder(), b.ch.FrameDecoder()

	for _, m := range []string{"one", "two", "three"} {
		frame, err := enc.Encode([]byte(m))
		require.NoError(t, err)
		plain, err := dec.Decode(frame[4:])
		require.NoError(t, err)
		assert.Equal(t, m, string(plain))
	}
}

func TestReadNonce_Mismatch(t *testing.T) {
	ca, cb := tcpPair(t)
	a := newSide(t, crypto.KeyTypeEd25519, ca)
	b := newSide(t, crypto.KeyTypeEd25519, cb)

	// b 在 nonce 位置发送任意数据
	done := make(chan struct{})
	go func() {
		defer close(done)
		propose, _ := b.ch.Propose()
		_, _ = b.conn.Write(b.ch.Codec().Encode(propose))
		if err := b.ch.ReadSecio(context.Background(), b.dec, b.conn); err != nil {
			return
		}
		frame, _ := b.ch.Encoder().Encode([]byte("not the nonce"))
		_, _ = b.conn.Write(frame)
	}()

	a.run(context.Background())
	<-done
	assert.ErrorIs(t, a.err, ErrBadNonce)
}
