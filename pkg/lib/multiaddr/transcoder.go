package multiaddr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/dep2p/go-crawler/pkg/types"
)

// Transcoder 协议数据的文本/字节互转
type Transcoder interface {
	StringToBytes(string) ([]byte, error)
	BytesToString([]byte) (string, error)
	ValidateBytes([]byte) error
}

// NewTranscoderFromFunctions 从函数创建 Transcoder
func NewTranscoderFromFunctions(
	s2b func(string) ([]byte, error),
	b2s func([]byte) (string, error),
	val func([]byte) error,
) Transcoder {
	return &transcoderWrapper{s2b, b2s, val}
}

type transcoderWrapper struct {
	stringToBytes func(string) ([]byte, error)
	bytesToString func([]byte) (string, error)
	validateBytes func([]byte) error
}

func (t *transcoderWrapper) StringToBytes(s string) ([]byte, error) {
	return t.stringToBytes(s)
}

func (t *transcoderWrapper) BytesToString(b []byte) (string, error) {
	return t.bytesToString(b)
}

func (t *transcoderWrapper) ValidateBytes(b []byte) error {
	if t.validateBytes == nil {
		return nil
	}
	return t.validateBytes(b)
}

// TranscoderIP4 IPv4
var TranscoderIP4 = NewTranscoderFromFunctions(ip4StringToBytes, ip4BytesToString, nil)

func ip4StringToBytes(s string) ([]byte, error) {
	ip := net.ParseIP(s).To4()
	if ip == nil {
		return nil, fmt.Errorf("failed to parse ip4 addr: %s", s)
	}
	return ip, nil
}

func ip4BytesToString(b []byte) (string, error) {
	if len(b) != 4 {
		return "", fmt.Errorf("invalid ip4 length: %d", len(b))
	}
	return net.IP(b).String(), nil
}

// TranscoderIP6 IPv6
var TranscoderIP6 = NewTranscoderFromFunctions(ip6StringToBytes, ip6BytesToString, nil)

func ip6StringToBytes(s string) ([]byte, error) {
	ip := net.ParseIP(s)
	if ip == nil || !strings.Contains(s, ":") {
		return nil, fmt.Errorf("failed to parse ip6 addr: %s", s)
	}
	return ip.To16(), nil
}

func ip6BytesToString(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("invalid ip6 length: %d", len(b))
	}
	ip := net.IP(b)
	if ip4 := ip.To4(); ip4 != nil {
		return "::ffff:" + ip4.String(), nil
	}
	return ip.String(), nil
}

// TranscoderIP6Zone IPv6 zone
var TranscoderIP6Zone = NewTranscoderFromFunctions(nameStringToBytes, nameBytesToString, nameValidateBytes)

// TranscoderDNS dns / dns4 / dns6 / dnsaddr
var TranscoderDNS = NewTranscoderFromFunctions(nameStringToBytes, nameBytesToString, nameValidateBytes)

func nameStringToBytes(s string) ([]byte, error) {
	b := []byte(s)
	return b, nameValidateBytes(b)
}

func nameBytesToString(b []byte) (string, error) {
	return string(b), nameValidateBytes(b)
}

func nameValidateBytes(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty name")
	}
	if strings.ContainsRune(string(b), '/') {
		return fmt.Errorf("name contains '/': %s", b)
	}
	return nil
}

// TranscoderPort tcp / udp 端口（大端 16 位）
var TranscoderPort = NewTranscoderFromFunctions(portStringToBytes, portBytesToString, nil)

func portStringToBytes(s string) ([]byte, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to parse port: %w", err)
	}
	return binary.BigEndian.AppendUint16(nil, uint16(port)), nil
}

func portBytesToString(b []byte) (string, error) {
	if len(b) != 2 {
		return "", fmt.Errorf("invalid port length: %d", len(b))
	}
	return strconv.Itoa(int(binary.BigEndian.Uint16(b))), nil
}

// TranscoderP2P PeerID：文本为 base58btc，字节为多重哈希
var TranscoderP2P = NewTranscoderFromFunctions(p2pStringToBytes, p2pBytesToString, p2pValidateBytes)

func p2pStringToBytes(s string) ([]byte, error) {
	id, err := types.Decode(s)
	if err != nil {
		return nil, err
	}
	return id.Bytes(), nil
}

func p2pBytesToString(b []byte) (string, error) {
	id, err := types.IDFromBytes(b)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func p2pValidateBytes(b []byte) error {
	_, err := types.IDFromBytes(b)
	return err
}
