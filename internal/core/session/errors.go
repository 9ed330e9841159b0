package session

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-crawler/pkg/types"
)

var (
	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("invalid session config")

	// ErrNilKey 未提供本端私钥
	ErrNilKey = errors.New("nil private key")

	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("session closed")

	// ErrAlreadyRun Run 只能调用一次
	ErrAlreadyRun = fmt.Errorf("%w: session already run", types.ErrProtocolViolation)
)
