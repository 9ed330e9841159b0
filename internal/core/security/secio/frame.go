package secio

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"fmt"
	"hash"
	"sync"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/pkg/types"
)

// ============================================================================
//                              单方向密码状态
// ============================================================================

// direction AES-CTR 流 + HMAC，计数器跨帧延续
type direction struct {
	mu     sync.Mutex
	stream cipher.Stream
	mac    hash.Hash
}

func newDirection(keys keySet, hashName string) (*direction, error) {
	block, err := aes.NewCipher(keys.CipherKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrHandshake, err)
	}
	h, err := hashFor(hashName)
	if err != nil {
		return nil, err
	}
	return &direction{
		stream: cipher.NewCTR(block, keys.IV),
		mac:    hmac.New(h, keys.MacKey),
	}, nil
}

// seal 加密并追加 MAC
func (d *direction) seal(plaintext []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, len(plaintext), len(plaintext)+d.mac.Size())
	d.stream.XORKeyStream(out, plaintext)
	d.mac.Reset()
	d.mac.Write(out)
	return d.mac.Sum(out)
}

// open 校验 MAC 后解密
func (d *direction) open(frame []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	macSize := d.mac.Size()
	if len(frame) < macSize {
		return nil, fmt.Errorf("%w: frame shorter than mac (%d bytes)", ErrBadMAC, len(frame))
	}
	body, tag := frame[:len(frame)-macSize], frame[len(frame)-macSize:]

	d.mac.Reset()
	d.mac.Write(body)
	if !hmac.Equal(d.mac.Sum(nil), tag) {
		return nil, ErrBadMAC
	}

	out := make([]byte, len(body))
	d.stream.XORKeyStream(out, body)
	return out, nil
}

// ============================================================================
//                              编解码器
// ============================================================================

// FrameEncoder 明文帧 -> 4 字节前缀的密文帧
type FrameEncoder struct {
	ch    *Channel
	codec framing.Codec
}

// Encode 加密一帧；通道建立之前返回 ErrNotEstablished
func (e *FrameEncoder) Encode(plaintext []byte) ([]byte, error) {
	if !e.ch.IsEstablished() {
		return nil, ErrNotEstablished
	}
	return e.codec.Encode(e.ch.out.seal(plaintext)), nil
}

// FrameDecoder 密文帧（已去掉长度前缀）-> 明文
type FrameDecoder struct {
	ch *Channel
}

// Decode 解密一帧
//
// 通道建立之前到达的帧被丢弃并返回 ErrNotEstablished，不会推进密码流。
func (d *FrameDecoder) Decode(frame []byte) ([]byte, error) {
	if !d.ch.IsEstablished() {
		log.Debug("通道建立前收到帧，已丢弃", "size", len(frame))
		return nil, ErrNotEstablished
	}
	return d.ch.in.open(frame)
}
