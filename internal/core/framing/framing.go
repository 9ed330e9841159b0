// Package framing 实现长度前缀帧编解码
//
// 两种前缀风格：
//
//   - StyleVarint: 无符号 varint 长度（multistream、identify、kad、mplex 内部消息）
//   - StyleFixed:  4 字节大端 uint32 长度（secio 握手与密文帧）
//
// 声明长度超过上限的帧在分配缓冲区之前被拒绝。
package framing

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-crawler/pkg/types"
)

// DefaultMaxSize 默认单帧上限
const DefaultMaxSize = 4 << 20

// fixedHeaderSize 4 字节长度前缀
const fixedHeaderSize = 4

var (
	// ErrFrameTooLarge 声明长度超过上限
	ErrFrameTooLarge = fmt.Errorf("%w: frame too large", types.ErrFraming)

	// ErrMalformedLength 长度前缀畸形（溢出、非最短编码）
	ErrMalformedLength = fmt.Errorf("%w: malformed length prefix", types.ErrFraming)
)

// Style 长度前缀风格
type Style int

const (
	// StyleVarint 无符号 varint 前缀
	StyleVarint Style = iota
	// StyleFixed 4 字节大端前缀
	StyleFixed
)

// String 返回风格名称
func (s Style) String() string {
	if s == StyleFixed {
		return "fixed32"
	}
	return "varint"
}

// Codec 帧编解码器，值类型，可并发使用
type Codec struct {
	style Style
	max   int
}

// NewVarint varint 前缀编解码器；max <= 0 时使用 DefaultMaxSize
func NewVarint(max int) Codec {
	return newCodec(StyleVarint, max)
}

// NewFixed 4 字节前缀编解码器；max <= 0 时使用 DefaultMaxSize
func NewFixed(max int) Codec {
	return newCodec(StyleFixed, max)
}

func newCodec(style Style, max int) Codec {
	if max <= 0 {
		max = DefaultMaxSize
	}
	return Codec{style: style, max: max}
}

// Style 返回前缀风格
func (c Codec) Style() Style {
	return c.style
}

// Max 返回单帧上限
func (c Codec) Max() int {
	return c.max
}

// Encode 返回 前缀+payload
func (c Codec) Encode(payload []byte) []byte {
	return c.AppendFrame(make([]byte, 0, len(payload)+binary.MaxVarintLen32), payload)
}

// AppendFrame 把 前缀+payload 追加到 dst
func (c Codec) AppendFrame(dst, payload []byte) []byte {
	if c.style == StyleFixed {
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	} else {
		dst = append(dst, varint.ToUvarint(uint64(len(payload)))...)
	}
	return append(dst, payload...)
}

// Decode 从 b 开头解析一帧
//
// 数据不足一帧时返回 n == 0 且 err == nil；payload 引用 b。
func (c Codec) Decode(b []byte) (payload []byte, n int, err error) {
	var (
		length uint64
		hdr    int
	)
	if c.style == StyleFixed {
		if len(b) < fixedHeaderSize {
			return nil, 0, nil
		}
		length, hdr = uint64(binary.BigEndian.Uint32(b)), fixedHeaderSize
	} else {
		length, hdr, err = varint.FromUvarint(b)
		if err != nil {
			if errors.Is(err, varint.ErrUnderflow) {
				return nil, 0, nil
			}
			return nil, 0, fmt.Errorf("%w: %v", ErrMalformedLength, err)
		}
	}
	if length > uint64(c.max) {
		return nil, 0, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, c.max)
	}
	end := hdr + int(length)
	if len(b) < end {
		return nil, 0, nil
	}
	return b[hdr:end], end, nil
}

// ============================================================================
//                              拉取式解码
// ============================================================================

// Decoder 从有序字节源中按帧读取
//
// 源为 *bufio.Reader 时直接复用，从而可以在同一字节源上交替使用不同风格的 Decoder。
type Decoder struct {
	codec Codec
	r     *bufio.Reader
}

// NewDecoder 创建拉取式解码器
func (c Codec) NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{codec: c, r: br}
}

// Reader 返回底层共享的 *bufio.Reader
func (d *Decoder) Reader() *bufio.Reader {
	return d.r
}

// Codec 返回所用编解码器
func (d *Decoder) Codec() Codec {
	return d.codec
}

// Next 读取下一帧
//
// 源在帧边界结束时返回 io.EOF，在帧中间结束时返回 io.ErrUnexpectedEOF。
func (d *Decoder) Next() ([]byte, error) {
	length, err := d.readLength()
	if err != nil {
		return nil, err
	}
	if length > uint64(d.codec.max) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, d.codec.max)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

func (d *Decoder) readLength() (uint64, error) {
	if d.codec.style == StyleFixed {
		var hdr [fixedHeaderSize]byte
		if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint32(hdr[:])), nil
	}

	length, err := varint.ReadUvarint(d.r)
	switch {
	case err == nil:
		return length, nil
	case errors.Is(err, varint.ErrOverflow), errors.Is(err, varint.ErrNotMinimal):
		return 0, fmt.Errorf("%w: %v", ErrMalformedLength, err)
	default:
		return 0, err
	}
}

// ============================================================================
//                              推送式解码
// ============================================================================

// Feeder 推送式解码器：接收任意切分的字节块，产出完整帧
type Feeder struct {
	codec Codec
	buf   []byte
}

// NewFeeder 创建推送式解码器
func (c Codec) NewFeeder() *Feeder {
	return &Feeder{codec: c}
}

// Push 追加一块字节，返回其中所有已完整的帧（按到达顺序）
func (f *Feeder) Push(chunk []byte) ([][]byte, error) {
	f.buf = append(f.buf, chunk...)
	var frames [][]byte
	for {
		payload, n, err := f.codec.Decode(f.buf)
		if err != nil {
			return frames, err
		}
		if n == 0 {
			break
		}
		frames = append(frames, append([]byte(nil), payload...))
		f.buf = f.buf[n:]
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return frames, nil
}

// Buffered 返回尚未组成完整帧的字节数
func (f *Feeder) Buffered() int {
	return len(f.buf)
}
