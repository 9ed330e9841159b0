package mplex

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-crawler/pkg/types"
)

var (
	// ErrStreamReset 流被重置
	ErrStreamReset = errors.New("mplex: stream reset")

	// ErrConnClosed 多路复用器已关闭
	ErrConnClosed = errors.New("mplex: connection closed")

	// ErrWriteClosed 写方向已关闭
	ErrWriteClosed = errors.New("mplex: write on closed stream")

	// ErrUnknownFlag 帧 flag 超出 0..6
	ErrUnknownFlag = fmt.Errorf("%w: mplex unknown flag", types.ErrProtocolViolation)
)
