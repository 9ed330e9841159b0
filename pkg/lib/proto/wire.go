package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed 消息不是合法的 protobuf 线格式
var ErrMalformed = errors.New("malformed protobuf message")

// Field 解码出的单个字段
//
// Type 为 BytesType 时值在 Bytes，为 VarintType 时值在 Varint。
type Field struct {
	Num    protowire.Number
	Type   protowire.Type
	Bytes  []byte
	Varint uint64
}

// Walk 依次解码 b 中的字段并交给 fn
//
// 定长与 group 字段被跳过，不会传给 fn。
func Walk(b []byte, fn func(f Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return parseErr(n)
		}
		b = b[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return parseErr(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return parseErr(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Expect 检查字段的线类型
func (f Field) Expect(want protowire.Type) error {
	if f.Type != want {
		return fmt.Errorf("%w: field %d has wire type %d, want %d", ErrMalformed, f.Num, f.Type, want)
	}
	return nil
}

// Clone 返回字段字节的副本，避免引用输入缓冲区
func (f Field) Clone() []byte {
	return append([]byte(nil), f.Bytes...)
}

// AppendBytes 追加非空的 bytes 字段
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendString 追加非空的 string 字段
func AppendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// AppendVarint 追加 varint 字段（零值同样写出）
func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func parseErr(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}
