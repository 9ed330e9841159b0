// Package tcp 实现爬虫的 TCP 拨号
//
// 只做出站连接：地址必须是 <ip4|ip6|dns4|dns6>/tcp/<port>，其后的组件（如 /p2p）
// 被忽略。dns4/dns6 通过 miekg/dns 向配置的服务器查询 A/AAAA 记录；未配置服务器时
// 读取 /etc/resolv.conf，仍不可用时回退到系统解析器。
//
// # 使用示例
//
//	d := tcp.NewDialer(tcp.WithConnectTimeout(15 * time.Second))
//	conn, err := d.Dial(ctx, addr)
//	if errors.Is(err, types.ErrConnect) { ... }
package tcp
