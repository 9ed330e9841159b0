package crypto

import (
	"fmt"

	pb "github.com/dep2p/go-crawler/pkg/lib/proto/key"
)

// MarshalPublicKey 编码为 PublicKey protobuf
func MarshalPublicKey(pub PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, ErrNilPublicKey
	}
	data, err := pub.Raw()
	if err != nil {
		return nil, err
	}
	return (&pb.PublicKey{Type: pub.Type(), Data: data}).Marshal(), nil
}

// UnmarshalPublicKey 解码 PublicKey protobuf
func UnmarshalPublicKey(b []byte) (PublicKey, error) {
	var m pb.PublicKey
	if err := m.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, err)
	}
	return PublicKeyFromRaw(m.Type, m.Data)
}

// MarshalPrivateKey 编码为 PrivateKey protobuf
func MarshalPrivateKey(priv PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, ErrNilPrivateKey
	}
	data, err := priv.Raw()
	if err != nil {
		return nil, err
	}
	return (&pb.PrivateKey{Type: priv.Type(), Data: data}).Marshal(), nil
}

// UnmarshalPrivateKey 解码 PrivateKey protobuf
func UnmarshalPrivateKey(b []byte) (PrivateKey, error) {
	var m pb.PrivateKey
	if err := m.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnmarshalFailed, err)
	}
	return PrivateKeyFromRaw(m.Type, m.Data)
}
