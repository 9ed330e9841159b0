// Package types 定义爬虫引擎的基础类型
//
// 这是最底层包，不依赖任何其他内部包。
//
// # 文件组织
//
//   - errors.go   - 错误分类（连接、帧、协商、握手、数据超时、协议违规、地址不支持）
//   - peerid.go   - PeerID（公钥多重哈希，base58btc 文本形式）
//   - protocol.go - ProtocolID、Direction
package types
