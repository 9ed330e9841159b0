// Package multiaddr 提供多地址（Multiaddr）的实现
//
// Multiaddr 是自描述的网络地址，二进制形式为
//
//	[varint:协议代码][varint:长度（仅变长协议）][数据]...
//
// 两个地址相等当且仅当字节序列相同。
//
// # 基本用法
//
//	ma, err := multiaddr.NewMultiaddr("/ip4/203.0.113.5/tcp/30333/p2p/12D3KooW...")
//	transport, id := multiaddr.Split(ma)
//	host, port, family, err := multiaddr.DialArgs(transport)
//
// # 支持的协议
//
//   - ip4 / ip6 / ip6zone
//   - tcp / udp
//   - dns / dns4 / dns6 / dnsaddr
//   - p2p（别名 ipfs，文本为 base58btc 多重哈希）
//   - quic / quic-v1 / ws / wss / tls / noise / p2p-circuit
//
// 协议代码与 multiformats/multicodec 对齐。DHT 返回的地址中出现其他协议时
// 解析失败，由调用方跳过。
package multiaddr
