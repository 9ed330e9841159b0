package multiaddr

// Protocol 描述一个 multiaddr 协议
type Protocol struct {
	// Name 协议名称（如 "ip4", "tcp"）
	Name string

	// Code 协议代码
	Code int

	// VCode 预计算的 varint 编码
	VCode []byte

	// Size 数据大小（位）；0 表示无数据，LengthPrefixedVarSize 表示变长
	Size int

	// Transcoder 文本与字节互转
	Transcoder Transcoder
}

// String 返回协议名称
func (p Protocol) String() string {
	return p.Name
}

// LengthPrefixedVarSize 变长数据（varint 长度前缀）
const LengthPrefixedVarSize = -1

// 协议代码（multiformats/multicodec）
const (
	P_IP4         = 0x0004
	P_TCP         = 0x0006
	P_UDP         = 0x0111
	P_IP6         = 0x0029
	P_IP6ZONE     = 0x002A
	P_DNS         = 0x0035
	P_DNS4        = 0x0036
	P_DNS6        = 0x0037
	P_DNSADDR     = 0x0038
	P_P2P         = 0x01A5
	P_TLS         = 0x01C0
	P_NOISE       = 0x01C6
	P_QUIC        = 0x01CC
	P_QUIC_V1     = 0x01CD
	P_WS          = 0x01DD
	P_WSS         = 0x01DE
	P_P2P_CIRCUIT = 0x0122
)

var (
	protocols       = map[int]Protocol{}
	protocolsByName = map[string]Protocol{}
)

func register(name string, code, size int, t Transcoder, aliases ...string) {
	p := Protocol{Name: name, Code: code, VCode: codeToVarint(code), Size: size, Transcoder: t}
	protocols[code] = p
	protocolsByName[name] = p
	for _, a := range aliases {
		protocolsByName[a] = p
	}
}

func init() {
	register("ip4", P_IP4, 32, TranscoderIP4)
	register("tcp", P_TCP, 16, TranscoderPort)
	register("udp", P_UDP, 16, TranscoderPort)
	register("ip6", P_IP6, 128, TranscoderIP6)
	register("ip6zone", P_IP6ZONE, LengthPrefixedVarSize, TranscoderIP6Zone)
	register("dns", P_DNS, LengthPrefixedVarSize, TranscoderDNS)
	register("dns4", P_DNS4, LengthPrefixedVarSize, TranscoderDNS)
	register("dns6", P_DNS6, LengthPrefixedVarSize, TranscoderDNS)
	register("dnsaddr", P_DNSADDR, LengthPrefixedVarSize, TranscoderDNS)
	register("p2p", P_P2P, LengthPrefixedVarSize, TranscoderP2P, "ipfs")
	register("tls", P_TLS, 0, nil)
	register("noise", P_NOISE, 0, nil)
	register("quic", P_QUIC, 0, nil)
	register("quic-v1", P_QUIC_V1, 0, nil)
	register("ws", P_WS, 0, nil)
	register("wss", P_WSS, 0, nil)
	register("p2p-circuit", P_P2P_CIRCUIT, 0, nil)
}

// ProtocolWithCode 按代码查找协议，不存在时返回零值（Code = 0）
func ProtocolWithCode(code int) Protocol {
	return protocols[code]
}

// ProtocolWithName 按名称查找协议，不存在时返回零值（Code = 0）
func ProtocolWithName(name string) Protocol {
	return protocolsByName[name]
}
