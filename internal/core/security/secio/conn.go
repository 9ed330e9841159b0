package secio

import (
	"bufio"
	"io"
	"sync"

	"github.com/dep2p/go-crawler/internal/core/framing"
)

// SecureConn 加密通道上的字节流
//
// 读取时逐帧解密并把明文拼接为连续字节流，从而可以在其上叠加 varint 帧的
// multistream 与 mplex；每次 Write 产生一个密文帧。
type SecureConn struct {
	ch *Channel

	readMu  sync.Mutex
	frames  *framing.Decoder
	dec     *FrameDecoder
	readBuf []byte

	writeMu sync.Mutex
	w       io.Writer
	enc     *FrameEncoder
}

// 确保实现接口
var _ io.ReadWriter = (*SecureConn)(nil)

// Conn 返回加密字节流
//
// r 应与握手阶段使用的同一个 *bufio.Reader，避免丢失已缓冲的密文。
func (c *Channel) Conn(r *bufio.Reader, w io.Writer) *SecureConn {
	return &SecureConn{
		ch:     c,
		frames: c.codec.NewDecoder(r),
		dec:    c.FrameDecoder(),
		w:      w,
		enc:    c.Encoder(),
	}
}

// Read 读取解密后的字节
func (s *SecureConn) Read(p []byte) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	for len(s.readBuf) == 0 {
		frame, err := s.frames.Next()
		if err != nil {
			return 0, err
		}
		plain, err := s.dec.Decode(frame)
		if err != nil {
			return 0, err
		}
		s.readBuf = plain
	}

	n := copy(p, s.readBuf)
	s.readBuf = s.readBuf[n:]
	return n, nil
}

// Write 把 p 加密为一帧写出
func (s *SecureConn) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	frame, err := s.enc.Encode(p)
	if err != nil {
		return 0, err
	}
	if _, err := s.w.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Channel 返回所属通道
func (s *SecureConn) Channel() *Channel {
	return s.ch
}
