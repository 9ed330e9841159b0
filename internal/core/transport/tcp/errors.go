package tcp

import (
	"fmt"

	"github.com/dep2p/go-crawler/pkg/types"
)

var (
	// ErrResolve 主机名解析失败
	ErrResolve = fmt.Errorf("%w: dns resolution failed", types.ErrConnect)

	// ErrNoAddresses 主机名没有对应族的地址
	ErrNoAddresses = fmt.Errorf("%w: no addresses for host", types.ErrConnect)
)
