package crypto

import (
	"github.com/minio/sha256-simd"

	"github.com/dep2p/go-crawler/pkg/types"
)

// IDFromPublicKey 从公钥派生 PeerID
//
// 编码后的公钥不超过 42 字节时使用 identity 多重哈希，否则使用 sha2-256。
func IDFromPublicKey(pub PublicKey) (types.PeerID, error) {
	encoded, err := MarshalPublicKey(pub)
	if err != nil {
		return "", err
	}
	return IDFromEncodedKey(encoded), nil
}

// IDFromEncodedKey 从已编码的 PublicKey protobuf 派生 PeerID
func IDFromEncodedKey(encoded []byte) types.PeerID {
	if len(encoded) <= types.MaxInlineKeyLength {
		return types.PeerID(types.EncodeMultihash(types.MhIdentity, encoded))
	}
	sum := sha256.Sum256(encoded)
	return types.PeerID(types.EncodeMultihash(types.MhSha2_256, sum[:]))
}

// IDFromPrivateKey 从私钥派生 PeerID
func IDFromPrivateKey(priv PrivateKey) (types.PeerID, error) {
	if priv == nil {
		return "", ErrNilPrivateKey
	}
	return IDFromPublicKey(priv.GetPublic())
}

// ExtractPublicKey 从 identity 形式的 PeerID 中取出公钥
func ExtractPublicKey(id types.PeerID) (PublicKey, error) {
	b := id.Bytes()
	if err := id.Validate(); err != nil {
		return nil, err
	}
	// identity 多重哈希：0x00 + 长度 varint（≤42，单字节）+ 编码后的公钥
	if b[0] != byte(types.MhIdentity) {
		return nil, ErrNoInlineKey
	}
	return UnmarshalPublicKey(b[2:])
}

// VerifyPeerID 检查 id 是否由 pub 派生
func VerifyPeerID(pub PublicKey, id types.PeerID) (bool, error) {
	encoded, err := MarshalPublicKey(pub)
	if err != nil {
		return false, err
	}
	return id.MatchesPublicKey(encoded, sha256.Sum256), nil
}
