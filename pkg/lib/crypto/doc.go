// Package crypto 提供节点身份密钥
//
// 密钥与 PeerID 的编码遵循 libp2p：
//
//   - 公钥序列化为 PublicKey{Type, Data} protobuf（pkg/lib/proto/key）
//   - 编码后不超过 42 字节的公钥直接以 identity 多重哈希作为 PeerID，
//     否则取 sha2-256 多重哈希
//
// # 支持的密钥类型
//
//   - Ed25519（默认）：Data 为 32 字节公钥
//   - Secp256k1：Data 为 33 字节压缩公钥，签名为 sha256 摘要上的 DER
//   - ECDSA：Data 为 PKIX DER，签名为 sha256 摘要上的 ASN.1
//   - RSA：Data 为 PKIX DER，签名为 PKCS#1 v1.5 + SHA-256
//
// # 快速开始
//
//	priv, pub, err := crypto.GenerateKeyPair(crypto.KeyTypeEd25519)
//	id, err := crypto.IDFromPublicKey(pub)
//	encoded, err := crypto.MarshalPublicKey(pub)
package crypto
