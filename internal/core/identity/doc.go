// Package identity 加载爬虫的本端身份
//
// 爬虫用这把私钥完成 secio 握手，公钥同时决定 identify 中宣告的 PeerID。
//
// # 加载顺序
//
//   - 配置了 KeyFile 且文件存在：读取文件
//   - 配置了 KeyFile、文件不存在且 AutoGenerate：生成并写入（0600）
//   - 配置了 KeyFile、文件不存在且未开启 AutoGenerate：返回错误
//   - 未配置 KeyFile：生成临时密钥，每次启动 PeerID 不同
//
// 文件格式为 libp2p PrivateKey protobuf，可与其他 libp2p 实现互换。
package identity
