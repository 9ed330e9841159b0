package secio

import (
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/minio/sha256-simd"
)

// 本端宣告的候选算法，按偏好排序
const (
	SupportedExchanges = "P-256,P-384,P-521"
	SupportedCiphers   = "AES-256,AES-128"
	SupportedHashes    = "SHA256,SHA512"
)

const (
	nonceSize   = 16
	ivSize      = 16
	macKeySize  = 20
	stretchSeed = "key expansion"
)

// Suite 协商出的算法组合
type Suite struct {
	Exchange string
	Cipher   string
	Hash     string
}

// String 返回 "P-256/AES-256/SHA256" 形式
func (s Suite) String() string {
	return s.Exchange + "/" + s.Cipher + "/" + s.Hash
}

// selectBest 从两份逗号分隔列表中选出共同算法
//
// order > 0 时按本端偏好，order < 0 时按对端偏好。
func selectBest(order int, local, remote string) (string, error) {
	if order == 0 {
		return "", ErrTalkingToSelf
	}
	f1, f2 := strings.Split(local, ","), strings.Split(remote, ",")
	if order < 0 {
		f1, f2 = f2, f1
	}
	for _, a := range f1 {
		for _, b := range f2 {
			if a == b {
				return a, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q vs %q", ErrNoCommonAlgorithm, local, remote)
}

// computeOrder 比较 sha256(remotePub||localNonce) 与 sha256(localPub||remoteNonce)
func computeOrder(localPub, localNonce, remotePub, remoteNonce []byte) int {
	h1 := sha256.Sum256(append(append([]byte(nil), remotePub...), localNonce...))
	h2 := sha256.Sum256(append(append([]byte(nil), localPub...), remoteNonce...))
	for i := range h1 {
		switch {
		case h1[i] < h2[i]:
			return -1
		case h1[i] > h2[i]:
			return 1
		}
	}
	return 0
}

func curveFor(name string) (ecdh.Curve, error) {
	switch name {
	case "P-256":
		return ecdh.P256(), nil
	case "P-384":
		return ecdh.P384(), nil
	case "P-521":
		return ecdh.P521(), nil
	default:
		return nil, fmt.Errorf("%w: exchange %s", ErrNoCommonAlgorithm, name)
	}
}

func cipherKeySize(name string) (int, error) {
	switch name {
	case "AES-128":
		return 16, nil
	case "AES-256":
		return 32, nil
	default:
		return 0, fmt.Errorf("%w: cipher %s", ErrNoCommonAlgorithm, name)
	}
}

func hashFor(name string) (func() hash.Hash, error) {
	switch name {
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: hash %s", ErrNoCommonAlgorithm, name)
	}
}

// keySet 单方向的密钥材料
type keySet struct {
	IV        []byte
	CipherKey []byte
	MacKey    []byte
}

// stretchKeys 从共享密钥派生两组密钥
//
// HMAC(secret) 迭代：a0 = HMAC(seed)，输出块 HMAC(a_i || seed)，a_{i+1} = HMAC(a_i)。
func stretchKeys(cipherName, hashName string, secret []byte) (keySet, keySet, error) {
	keyLen, err := cipherKeySize(cipherName)
	if err != nil {
		return keySet{}, keySet{}, err
	}
	h, err := hashFor(hashName)
	if err != nil {
		return keySet{}, keySet{}, err
	}

	half := ivSize + keyLen + macKeySize
	result := make([]byte, 2*half)

	m := hmac.New(h, secret)
	m.Write([]byte(stretchSeed))
	a := m.Sum(nil)

	for j := 0; j < len(result); {
		m.Reset()
		m.Write(a)
		m.Write([]byte(stretchSeed))
		j += copy(result[j:], m.Sum(nil))

		m.Reset()
		m.Write(a)
		a = m.Sum(nil)
	}

	split := func(r []byte) keySet {
		return keySet{
			IV:        r[:ivSize],
			CipherKey: r[ivSize : ivSize+keyLen],
			MacKey:    r[ivSize+keyLen:],
		}
	}
	return split(result[:half]), split(result[half:]), nil
}
