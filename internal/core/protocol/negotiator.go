package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/multistream"
	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/pkg/types"
)

// DefaultMaxMessageSize 子协议单条消息上限
const DefaultMaxMessageSize = 1 << 20

// Negotiate 在出站流上提议 id 并读取协商回复
//
// 对端可以省略回显（expectEcho=false）。onNegotiated 在协商完成后调用一次，
// 适合立即写出第一条请求。
func Negotiate(s mplex.Stream, id types.ProtocolID, maxMessage int, onNegotiated func()) (*multistream.Negotiated, error) {
	if _, err := s.Write(multistream.HeaderFor(id)); err != nil {
		return nil, fmt.Errorf("write %s header: %w", id, err)
	}
	dec := framing.NewVarint(maxMessage).NewDecoder(s)
	return multistream.ReadProtocol(dec, id, false, onNegotiated)
}

// Deadline 派生带超时的 ctx，超时或取消时重置流以打断阻塞读
//
// 返回的 stop 必须调用。
func Deadline(ctx context.Context, s mplex.Stream, d time.Duration) (context.Context, func()) {
	dctx, cancel := context.WithTimeout(ctx, d)
	stopReset := context.AfterFunc(dctx, func() {
		_ = s.Reset()
	})
	return dctx, func() {
		stopReset()
		cancel()
	}
}
