// Package responder 应答对端打开的流
//
// 支持 /ipfs/ping/1.0.0（回显 32 字节 ping 直到对端关闭）与 /ipfs/id/1.0.0
// （写出一条本端 Identify 后关闭）。其他协议回复 "na"，对端放弃后流被关闭。
package responder

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/multistream"
	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/internal/core/protocol"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/protocolids"
)

var log = logger.Logger("responder")

const (
	// PingSize ping 负载大小
	PingSize = 32

	// DefaultIdleTimeout 入站流的最长存活时间
	DefaultIdleTimeout = 60 * time.Second
)

// Responder 入站流处理器，实现 mplex.Handler[struct{}]
type Responder struct {
	identify    []byte
	IdleTimeout time.Duration
}

var _ mplex.Handler[struct{}] = (*Responder)(nil)

// New 创建应答器；localIdentify 为已编码的本端 Identify（见 identify.LocalInfo）
func New(localIdentify []byte) *Responder {
	return &Responder{identify: localIdentify, IdleTimeout: DefaultIdleTimeout}
}

// HandleStream 协商并应答一个入站流
func (r *Responder) HandleStream(ctx context.Context, s mplex.Stream) (struct{}, error) {
	_, stop := protocol.Deadline(ctx, s, r.IdleTimeout)
	defer stop()

	dec := framing.NewVarint(protocol.DefaultMaxMessageSize).NewDecoder(s)
	proto, err := multistream.Listen(dec, s, protocolids.Ping, protocolids.Identify)
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Debug("入站流在协商期间关闭", "stream", s.ID())
			return struct{}{}, nil
		}
		return struct{}{}, err
	}

	switch proto {
	case protocolids.Ping:
		return struct{}{}, echoPings(dec.Reader(), s)
	case protocolids.Identify:
		if _, err := s.Write(dec.Codec().Encode(r.identify)); err != nil {
			return struct{}{}, err
		}
		log.Debug("已应答 identify", "stream", s.ID())
		return struct{}{}, nil
	}
	return struct{}{}, nil
}

// echoPings 回显 PingSize 字节块直到对端关闭
func echoPings(r io.Reader, w io.Writer) error {
	buf := make([]byte, PingSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
}
