// Package secio 实现 /secio/1.0.0 加密通道
//
// # 握手
//
// 双方各自发送 Propose（随机数、身份公钥、候选算法），读取对端 Propose 后：
//
//	order = compare(sha256(remotePub || localNonce), sha256(localPub || remoteNonce))
//
// order 决定采用哪一方的算法偏好，并决定拉伸后两组密钥的归属。随后双方交换
// Exchange（临时 ECDH 公钥 + 身份签名），签名覆盖 proposeOut || proposeIn || epubkey。
//
// # 帧
//
// 握手后每帧为 4 字节大端长度 + AES-CTR 密文 + HMAC。第一帧是对端的 nonce，
// 用于确认双方派生出相同的密钥。
//
// # 状态
//
//	Idle -> ProposalSent -> ProposalReceived -> KeyExchanged -> Established -> NonceVerified
//
// 每个转换只发生一次；Established 之前不解密任何负载帧。
//
// # 使用示例
//
//	ch, _ := secio.New(priv, secio.WithExpectedPeer(pid))
//	propose, _ := ch.Propose()
//	conn.Write(multistream.Write(framing.NewFixed(0).Encode(propose), protocolids.Secio))
//	// ... 读取协商回复 ...
//	if err := ch.ReadSecio(ctx, fixedDecoder, conn); err != nil { ... }
//	ch.WriteNonce(conn)
//	ch.ReadNonce(fixedDecoder)
//	sc := ch.Conn(reader, conn)
package secio
