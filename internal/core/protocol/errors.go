package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/pkg/types"
)

// DataTimeout 把超时导致的读失败映射为 types.ErrDataTimeout
//
// dataCtx 由 Deadline 返回；父 ctx 被取消时返回父 ctx 的错误。
func DataTimeout(parent, dataCtx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(dataCtx.Err(), context.DeadlineExceeded) &&
		(errors.Is(err, mplex.ErrStreamReset) || errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %s", types.ErrDataTimeout, name)
	}
	return err
}
