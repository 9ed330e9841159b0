package secio

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	pb "github.com/dep2p/go-crawler/pkg/lib/proto/secio"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("secio")

// ============================================================================
//                              状态机
// ============================================================================

// State 通道状态
type State int32

const (
	StateIdle State = iota
	StateProposalSent
	StateProposalReceived
	StateKeyExchanged
	StateEstablished
	StateNonceVerified
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProposalSent:
		return "proposal-sent"
	case StateProposalReceived:
		return "proposal-received"
	case StateKeyExchanged:
		return "key-exchanged"
	case StateEstablished:
		return "established"
	case StateNonceVerified:
		return "nonce-verified"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FrameSource 按帧读取，*framing.Decoder 满足此接口
type FrameSource interface {
	Next() ([]byte, error)
}

// ============================================================================
//                              Channel
// ============================================================================

// Channel 单个会话的 secio 通道，持有全部密钥材料
type Channel struct {
	priv     crypto.PrivateKey
	localPub []byte // 序列化的 PublicKey protobuf
	expected types.PeerID
	random   io.Reader
	codec    framing.Codec

	state atomic.Int32

	localNonce []byte
	proposeOut []byte

	remoteNonce []byte
	remotePub   crypto.PublicKey
	remotePeer  types.PeerID
	suite       Suite

	out *direction
	in  *direction
}

// Option 通道选项
type Option func(*Channel)

// WithExpectedPeer 握手后校验对端身份
func WithExpectedPeer(id types.PeerID) Option {
	return func(c *Channel) {
		c.expected = id
	}
}

// WithRandom 替换随机源（nonce 与临时密钥）
func WithRandom(r io.Reader) Option {
	return func(c *Channel) {
		c.random = r
	}
}

// WithMaxFrameSize 单帧上限
func WithMaxFrameSize(n int) Option {
	return func(c *Channel) {
		c.codec = framing.NewFixed(n)
	}
}

// New 创建通道
func New(priv crypto.PrivateKey, opts ...Option) (*Channel, error) {
	if priv == nil {
		return nil, crypto.ErrNilPrivateKey
	}
	localPub, err := crypto.MarshalPublicKey(priv.GetPublic())
	if err != nil {
		return nil, fmt.Errorf("marshal local public key: %w", err)
	}
	c := &Channel{
		priv:     priv,
		localPub: localPub,
		random:   rand.Reader,
		codec:    framing.NewFixed(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State 返回当前状态
func (c *Channel) State() State {
	return State(c.state.Load())
}

// IsEstablished 密钥已就绪
func (c *Channel) IsEstablished() bool {
	return c.State() >= StateEstablished
}

// Codec 返回握手与密文帧使用的 4 字节前缀编解码器
func (c *Channel) Codec() framing.Codec {
	return c.codec
}

// RemotePeer 对端 PeerID，ReadSecio 成功后有效
func (c *Channel) RemotePeer() types.PeerID {
	if c.State() < StateKeyExchanged {
		return ""
	}
	return c.remotePeer
}

// RemotePublicKey 对端身份公钥，ReadSecio 成功后有效
func (c *Channel) RemotePublicKey() crypto.PublicKey {
	if c.State() < StateKeyExchanged {
		return nil
	}
	return c.remotePub
}

// Selected 协商出的算法组合
func (c *Channel) Selected() Suite {
	if c.State() < StateKeyExchanged {
		return Suite{}
	}
	return c.suite
}

// Encoder 返回加密编码器
func (c *Channel) Encoder() *FrameEncoder {
	return &FrameEncoder{ch: c, codec: c.codec}
}

// FrameDecoder 返回解密解码器
func (c *Channel) FrameDecoder() *FrameDecoder {
	return &FrameDecoder{ch: c}
}

// ============================================================================
//                              握手
// ============================================================================

// Propose 生成本端 Propose，只能调用一次
//
// 返回值未加帧，调用方用 Codec().Encode 加 4 字节前缀后经 multistream 发送。
func (c *Channel) Propose() ([]byte, error) {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateProposalSent)) {
		return nil, fmt.Errorf("%w: proposal already sent", types.ErrProtocolViolation)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	c.localNonce = nonce

	p := &pb.Propose{
		Rand:      nonce,
		Pubkey:    c.localPub,
		Exchanges: SupportedExchanges,
		Ciphers:   SupportedCiphers,
		Hashes:    SupportedHashes,
	}
	c.proposeOut = p.Marshal()
	return c.proposeOut, nil
}

// ReadSecio 读取对端 Propose 与 Exchange，写出本端 Exchange，建立密钥
//
// src 读取 4 字节前缀帧，w 为原始连接。每个通道只能调用一次。
// ctx 在各次阻塞读之前检查；调用方应在 ctx 结束时关闭连接以打断阻塞读。
func (c *Channel) ReadSecio(ctx context.Context, src FrameSource, w io.Writer) error {
	if !c.state.CompareAndSwap(int32(StateProposalSent), int32(StateProposalReceived)) {
		if c.State() == StateIdle {
			return ErrNotProposed
		}
		return ErrAlreadyRead
	}

	// 1. 对端 Propose
	if err := ctx.Err(); err != nil {
		return err
	}
	proposeIn, err := src.Next()
	if err != nil {
		return fmt.Errorf("read proposal: %w", err)
	}
	var remote pb.Propose
	if err := remote.Unmarshal(proposeIn); err != nil {
		return fmt.Errorf("%w: decode proposal: %v", types.ErrHandshake, err)
	}
	if len(remote.Rand) == 0 {
		return fmt.Errorf("%w: empty nonce", types.ErrHandshake)
	}

	remotePub, err := crypto.UnmarshalPublicKey(remote.Pubkey)
	if err != nil {
		return fmt.Errorf("%w: remote public key: %v", types.ErrHandshake, err)
	}
	remotePeer := crypto.IDFromEncodedKey(remote.Pubkey)
	if c.expected != "" && c.expected != remotePeer {
		return fmt.Errorf("%w: expected %s, got %s", ErrPeerIDMismatch, c.expected.ShortString(), remotePeer.ShortString())
	}

	// 2. 顺序与算法
	order := computeOrder(c.localPub, c.localNonce, remote.Pubkey, remote.Rand)
	if order == 0 {
		return ErrTalkingToSelf
	}
	suite, err := negotiateSuite(order, &remote)
	if err != nil {
		return err
	}
	curve, err := curveFor(suite.Exchange)
	if err != nil {
		return err
	}

	// 3. 本端 Exchange
	ephemeral, err := curve.GenerateKey(c.random)
	if err != nil {
		return fmt.Errorf("generate ephemeral key: %w", err)
	}
	epub := ephemeral.PublicKey().Bytes()
	sig, err := c.priv.Sign(concat(c.proposeOut, proposeIn, epub))
	if err != nil {
		return fmt.Errorf("sign exchange: %w", err)
	}
	out := &pb.Exchange{Epubkey: epub, Signature: sig}
	if _, err := w.Write(c.codec.Encode(out.Marshal())); err != nil {
		return fmt.Errorf("write exchange: %w", err)
	}

	// 4. 对端 Exchange
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := src.Next()
	if err != nil {
		return fmt.Errorf("read exchange: %w", err)
	}
	var in pb.Exchange
	if err := in.Unmarshal(msg); err != nil {
		return fmt.Errorf("%w: decode exchange: %v", types.ErrHandshake, err)
	}
	ok, err := remotePub.Verify(concat(proposeIn, c.proposeOut, in.Epubkey), in.Signature)
	if err != nil || !ok {
		return ErrBadSignature
	}

	remoteEphemeral, err := curve.NewPublicKey(in.Epubkey)
	if err != nil {
		return fmt.Errorf("%w: remote ephemeral key: %v", types.ErrHandshake, err)
	}
	secret, err := ephemeral.ECDH(remoteEphemeral)
	if err != nil {
		return fmt.Errorf("%w: ecdh: %v", types.ErrHandshake, err)
	}

	c.remoteNonce = remote.Rand
	c.remotePub = remotePub
	c.remotePeer = remotePeer
	c.suite = suite
	c.state.Store(int32(StateKeyExchanged))

	// 5. 密钥拉伸，order < 0 时交换两组密钥
	k1, k2, err := stretchKeys(suite.Cipher, suite.Hash, secret)
	if err != nil {
		return err
	}
	if order < 0 {
		k1, k2 = k2, k1
	}
	if c.out, err = newDirection(k1, suite.Hash); err != nil {
		return err
	}
	if c.in, err = newDirection(k2, suite.Hash); err != nil {
		return err
	}
	c.state.Store(int32(StateEstablished))

	log.Debug("secio 通道已建立",
		"peer", remotePeer.ShortString(),
		"suite", suite.String(),
		"keyType", remotePub.Type().String())
	return nil
}

func negotiateSuite(order int, remote *pb.Propose) (Suite, error) {
	var (
		s   Suite
		err error
	)
	if s.Exchange, err = selectBest(order, SupportedExchanges, remote.Exchanges); err != nil {
		return Suite{}, err
	}
	if s.Cipher, err = selectBest(order, SupportedCiphers, remote.Ciphers); err != nil {
		return Suite{}, err
	}
	if s.Hash, err = selectBest(order, SupportedHashes, remote.Hashes); err != nil {
		return Suite{}, err
	}
	return s, nil
}

// ============================================================================
//                              Nonce 交换
// ============================================================================

// WriteNonce 以第一帧密文回送对端的 nonce
func (c *Channel) WriteNonce(w io.Writer) error {
	if !c.IsEstablished() {
		return ErrNotEstablished
	}
	frame, err := c.Encoder().Encode(c.remoteNonce)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write nonce: %w", err)
	}
	return nil
}

// ReadNonce 读取恰好一帧并确认其为本端 nonce
func (c *Channel) ReadNonce(src FrameSource) error {
	if c.State() != StateEstablished {
		if c.State() < StateEstablished {
			return ErrNotEstablished
		}
		return fmt.Errorf("%w: nonce already verified", types.ErrProtocolViolation)
	}
	frame, err := src.Next()
	if err != nil {
		return fmt.Errorf("read nonce: %w", err)
	}
	plain, err := c.FrameDecoder().Decode(frame)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(plain, c.localNonce) != 1 {
		return ErrBadNonce
	}
	c.state.Store(int32(StateNonceVerified))
	return nil
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
