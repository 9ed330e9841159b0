package mplex

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-crawler/internal/core/framing"
)

// MaxPayloadSize 单帧负载上限
const MaxPayloadSize = 1 << 20

// Flag 帧类型
type Flag uint8

const (
	FlagNewStream Flag = iota
	FlagMessageReceiver
	FlagMessageInitiator
	FlagCloseReceiver
	FlagCloseInitiator
	FlagResetReceiver
	FlagResetInitiator
)

var flagNames = [...]string{
	"NewStream",
	"MessageReceiver",
	"MessageInitiator",
	"CloseReceiver",
	"CloseInitiator",
	"ResetReceiver",
	"ResetInitiator",
}

// String 返回 flag 名称
func (f Flag) String() string {
	if int(f) < len(flagNames) {
		return flagNames[f]
	}
	return fmt.Sprintf("Flag(%d)", uint8(f))
}

// fromInitiator 该 flag 是否由流的发起方发送
func (f Flag) fromInitiator() bool {
	switch f {
	case FlagNewStream, FlagMessageInitiator, FlagCloseInitiator, FlagResetInitiator:
		return true
	default:
		return false
	}
}

// 按本端角色选择出站 flag
func messageFlag(local bool) Flag {
	if local {
		return FlagMessageInitiator
	}
	return FlagMessageReceiver
}

func closeFlag(local bool) Flag {
	if local {
		return FlagCloseInitiator
	}
	return FlagCloseReceiver
}

func resetFlag(local bool) Flag {
	if local {
		return FlagResetInitiator
	}
	return FlagResetReceiver
}

// Frame 一个 mplex 帧
type Frame struct {
	ID      uint64
	Flag    Flag
	Payload []byte
}

// Encode 编码为线格式
func (f Frame) Encode() []byte {
	header := f.ID<<3 | uint64(f.Flag)
	out := make([]byte, 0, varint.UvarintSize(header)+varint.UvarintSize(uint64(len(f.Payload)))+len(f.Payload))
	out = append(out, varint.ToUvarint(header)...)
	out = append(out, varint.ToUvarint(uint64(len(f.Payload)))...)
	return append(out, f.Payload...)
}

// ReadFrame 从 r 读取一帧；负载超过 max 时在分配前返回 framing.ErrFrameTooLarge
func ReadFrame(r *bufio.Reader, max int) (Frame, error) {
	header, err := varint.ReadUvarint(r)
	if err != nil {
		return Frame{}, lengthError(err)
	}
	flag := Flag(header & 0x07)
	if flag > FlagResetInitiator {
		return Frame{}, fmt.Errorf("%w: %d", ErrUnknownFlag, flag)
	}

	length, err := varint.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, lengthError(err)
	}
	if length > uint64(max) {
		return Frame{}, fmt.Errorf("%w: mplex payload %d > %d", framing.ErrFrameTooLarge, length, max)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}
	return Frame{ID: header >> 3, Flag: flag, Payload: payload}, nil
}

func lengthError(err error) error {
	if errors.Is(err, varint.ErrOverflow) || errors.Is(err, varint.ErrNotMinimal) {
		return fmt.Errorf("%w: %v", framing.ErrMalformedLength, err)
	}
	return err
}
