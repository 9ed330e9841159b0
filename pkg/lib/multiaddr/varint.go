package multiaddr

import (
	"fmt"
	"math"

	"github.com/multiformats/go-varint"
)

// codeToVarint 协议代码的 varint 编码
func codeToVarint(code int) []byte {
	if code < 0 || code > math.MaxInt32 {
		panic("invalid protocol code")
	}
	return varint.ToUvarint(uint64(code))
}

// readVarintCode 读取协议代码，返回 (code, 读取字节数)
func readVarintCode(b []byte) (int, int, error) {
	code, n, err := varint.FromUvarint(b)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: protocol code: %v", ErrInvalidMultiaddr, err)
	}
	if code > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: protocol code %d out of range", ErrInvalidMultiaddr, code)
	}
	return int(code), n, nil
}

// readLength 读取变长数据的长度前缀
func readLength(b []byte) (int, int, error) {
	l, n, err := varint.FromUvarint(b)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: length prefix: %v", ErrInvalidMultiaddr, err)
	}
	if l > uint64(len(b)-n) {
		return 0, 0, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrInvalidMultiaddr, l, len(b)-n)
	}
	return int(l), n, nil
}
