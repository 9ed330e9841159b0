// Package multistream 实现 multistream-select 1.0.0 协商
//
// 每一行是 varint 帧包裹的 "协议名\n"。发起方发送
//
//	frame("/multistream/1.0.0\n") frame("<protocol>\n") [payload...]
//
// 对端回显头与协议行表示接受，回复 "na\n" 表示拒绝。
package multistream

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("multistream")

// NotAvailable 拒绝行
const NotAvailable = "na"

// maxLineSize 协商行上限
const maxLineSize = 1024

var lineCodec = framing.NewVarint(maxLineSize)

// Source 按帧提供消息，*framing.Decoder 满足此接口
type Source interface {
	Next() ([]byte, error)
}

// Line 编码一行：frame(s + "\n")
func Line(s string) []byte {
	return lineCodec.Encode([]byte(s + "\n"))
}

// HeaderFor 返回 frame("/multistream/1.0.0\n") + frame(id + "\n")
func HeaderFor(id types.ProtocolID) []byte {
	out := Line(string(protocolids.Multistream))
	return append(out, Line(string(id))...)
}

// Write 返回 HeaderFor(id) + payload；payload 原样追加，不再加帧
func Write(payload []byte, id types.ProtocolID) []byte {
	return append(HeaderFor(id), payload...)
}

// ReadLine 读取一帧并去掉结尾换行；没有换行的帧视为协商错误
func ReadLine(src Source) (string, error) {
	msg, err := src.Next()
	if err != nil {
		return "", err
	}
	line, ok := parseLine(msg)
	if !ok {
		return "", fmt.Errorf("%w: message is not a negotiation line", types.ErrNegotiation)
	}
	return line, nil
}

func parseLine(msg []byte) (string, bool) {
	if len(msg) == 0 || msg[len(msg)-1] != '\n' || bytes.IndexByte(msg[:len(msg)-1], '\n') >= 0 {
		return "", false
	}
	return string(msg[:len(msg)-1]), true
}

// Negotiated 协商完成后的消息流，后续消息原样透传
type Negotiated struct {
	Protocol types.ProtocolID

	src     Source
	pending [][]byte
}

// Next 返回下一条消息；协商时被当作负载的消息先被返回
func (n *Negotiated) Next() ([]byte, error) {
	if len(n.pending) > 0 {
		msg := n.pending[0]
		n.pending = n.pending[1:]
		return msg, nil
	}
	return n.src.Next()
}

// ReadProtocol 消费对端的协商回复
//
// 头行必须出现。expectEcho 为 true 时协议行也必须出现；为 false 时允许对端省略回显，
// 第一条不匹配的消息被视为负载并由 Negotiated.Next 重放。"na" 或其他不匹配行返回
// types.ErrNegotiation。onNegotiated 在成功后恰好调用一次。
func ReadProtocol(src Source, id types.ProtocolID, expectEcho bool, onNegotiated func()) (*Negotiated, error) {
	header, err := ReadLine(src)
	if err != nil {
		return nil, err
	}
	if header != string(protocolids.Multistream) {
		return nil, fmt.Errorf("%w: unexpected header %q", types.ErrNegotiation, header)
	}

	n := &Negotiated{Protocol: id, src: src}

	msg, err := src.Next()
	switch {
	case err == io.EOF && !expectEcho:
		// 对端只回了头就关闭：视为接受，后续读取得到 EOF
	case err != nil:
		return nil, err
	default:
		line, isLine := parseLine(msg)
		switch {
		case isLine && line == string(id):
		case isLine && line == NotAvailable:
			return nil, fmt.Errorf("%w: %s rejected", types.ErrNegotiation, id)
		case expectEcho:
			return nil, fmt.Errorf("%w: expected echo of %s, got %q", types.ErrNegotiation, id, truncate(msg))
		default:
			log.Debug("对端省略协议回显，消息按负载处理", "protocol", id, "size", len(msg))
			n.pending = append(n.pending, msg)
		}
	}

	if onNegotiated != nil {
		onNegotiated()
	}
	return n, nil
}

// Listen 应答方协商：回显头，逐行读取提议，接受第一个受支持的协议
//
// 不支持的提议回复 "na" 后继续等待，直到对端关闭或出错。
func Listen(src Source, w io.Writer, supported ...types.ProtocolID) (types.ProtocolID, error) {
	header, err := ReadLine(src)
	if err != nil {
		return "", err
	}
	if header != string(protocolids.Multistream) {
		return "", fmt.Errorf("%w: unexpected header %q", types.ErrNegotiation, header)
	}
	if _, err := w.Write(Line(string(protocolids.Multistream))); err != nil {
		return "", err
	}

	for {
		line, err := ReadLine(src)
		if err != nil {
			return "", err
		}
		for _, p := range supported {
			if line == string(p) {
				if _, err := w.Write(Line(line)); err != nil {
					return "", err
				}
				return p, nil
			}
		}
		log.Debug("请求的协议不受支持", "protocol", line)
		if _, err := w.Write(Line(NotAvailable)); err != nil {
			return "", err
		}
	}
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > 32 {
		s = s[:32] + "..."
	}
	return strings.TrimRight(s, "\n")
}
