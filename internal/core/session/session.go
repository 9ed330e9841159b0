package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/multistream"
	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/internal/core/protocol/identify"
	"github.com/dep2p/go-crawler/internal/core/protocol/kad"
	"github.com/dep2p/go-crawler/internal/core/protocol/responder"
	"github.com/dep2p/go-crawler/internal/core/security/secio"
	"github.com/dep2p/go-crawler/internal/core/transport/tcp"
	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("session")

// State 会话状态，每次转换只发生一次
type State int32

const (
	// StateIdle 尚未连接
	StateIdle State = iota
	// StateConnected TCP 已连接
	StateConnected
	// StateSecured secio 通道已建立且 nonce 已校验
	StateSecured
	// StateMplexActive mplex 已协商，出站泵与入站读取已启动
	StateMplexActive
	// StateClosed 连接已释放
	StateClosed
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateSecured:
		return "secured"
	case StateMplexActive:
		return "mplex-active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DialFunc 建立到 addr 的原始连接
type DialFunc func(ctx context.Context, addr multiaddr.Multiaddr) (net.Conn, error)

// Result 一次拨号的产出
type Result struct {
	Summary PeerSummary
	// Discovered kad 返回的地址，按出现顺序去重，未做公网过滤
	Discovered []multiaddr.Multiaddr
}

// ============================================================================
//                              Dialer
// ============================================================================

// Dialer 创建会话
type Dialer struct {
	priv          crypto.PrivateKey
	cfg           *Config
	dial          DialFunc
	clock         clock.Clock
	localIdentify []byte
}

// Option Dialer 选项
type Option func(*Dialer) error

// WithConfig 设置配置
func WithConfig(cfg *Config) Option {
	return func(d *Dialer) error {
		if cfg == nil {
			return ErrInvalidConfig
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		d.cfg = cfg
		return nil
	}
}

// WithDialFunc 替换 TCP 拨号
func WithDialFunc(f DialFunc) Option {
	return func(d *Dialer) error {
		d.dial = f
		return nil
	}
}

// WithClock 设置摘要时间戳使用的时钟；nil 时保留默认时钟
func WithClock(c clock.Clock) Option {
	return func(d *Dialer) error {
		if c != nil {
			d.clock = c
		}
		return nil
	}
}

// NewDialer 创建 Dialer
func NewDialer(priv crypto.PrivateKey, opts ...Option) (*Dialer, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	d := &Dialer{
		priv:  priv,
		cfg:   DefaultConfig(),
		clock: clock.New(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.dial == nil {
		d.dial = tcp.NewDialer(tcp.WithConnectTimeout(d.cfg.ConnectTimeout)).Dial
	}

	local, err := identify.LocalInfo(priv, d.cfg.AgentVersion, nil)
	if err != nil {
		return nil, fmt.Errorf("build local identify: %w", err)
	}
	d.localIdentify = local
	return d, nil
}

// Dial 对 addr 执行一次完整会话
//
// 引导失败返回错误且没有结果；引导成功后总是返回结果，Outcome 说明拿到了哪些数据。
// 每次调用恰好输出一行日志。
func (d *Dialer) Dial(ctx context.Context, addr multiaddr.Multiaddr) (*Result, error) {
	if err := tcp.CanDial(addr); err != nil {
		log.Debug("地址不可拨号", "addr", addr.String(), "err", err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.SessionTimeout)
	defer cancel()

	s, err := d.Open(ctx, addr)
	if err != nil {
		log.Debug("会话引导失败", "addr", addr.String(), "err", err)
		return nil, err
	}
	_ = s.Run(ctx)
	closeErr := s.Close()

	res := s.Result()
	attrs := []any{
		"session", s.ID(),
		"addr", addr.String(),
		"peer", res.Summary.PeerID.ShortString(),
		"outcome", res.Summary.Outcome.String(),
		"agent", res.Summary.Agent,
		"discovered", len(res.Discovered),
		"duration", res.Summary.Duration(),
	}
	if closeErr != nil {
		attrs = append(attrs, "closeErr", closeErr)
	}
	if res.Summary.Outcome == OutcomeFailed {
		log.Debug("会话结束，没有协议数据", attrs...)
	} else {
		log.Info("会话结束", attrs...)
	}
	return res, nil
}

// ============================================================================
//                              Session
// ============================================================================

// Session 一条连接上的会话
type Session struct {
	id    string
	addr  multiaddr.Multiaddr
	cfg   *Config
	clock clock.Clock
	state atomic.Int32

	conn net.Conn
	sc   *secio.SecureConn
	mux  *mplex.Multiplexer

	served chan struct{}
	ran    atomic.Bool

	summary    PeerSummary
	discovered []multiaddr.Multiaddr

	closeOnce sync.Once
	closeErr  error
}

// Open 连接 addr 并完成 secio 与 mplex 引导
//
// ctx 约束整个引导过程；ctx 结束时连接被关闭以打断阻塞读。
func (d *Dialer) Open(ctx context.Context, addr multiaddr.Multiaddr) (*Session, error) {
	if err := tcp.CanDial(addr); err != nil {
		return nil, err
	}
	s := &Session{
		id:    uuid.NewString(),
		addr:  addr,
		cfg:   d.cfg,
		clock: d.clock,
	}

	cctx, ccancel := context.WithTimeout(ctx, d.cfg.ConnectTimeout)
	conn, err := d.dial(cctx, addr)
	ccancel()
	if err != nil {
		if !errors.Is(err, types.ErrConnect) {
			err = fmt.Errorf("%w: %w", types.ErrConnect, err)
		}
		return nil, err
	}
	s.conn = conn
	s.summary = PeerSummary{
		SessionID:   s.id,
		Address:     addr,
		Direction:   types.DirOutbound,
		ConnectedAt: d.clock.Now(),
	}
	s.transition(StateIdle, StateConnected)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	err = s.bootstrap(ctx, d, addr)
	stop()
	if err != nil {
		_ = conn.Close()
		if cerr := ctx.Err(); cerr != nil {
			return nil, fmt.Errorf("bootstrap aborted: %w: %w", cerr, err)
		}
		return nil, err
	}
	return s, nil
}

// bootstrap 依次执行：
//  1. multistream(/secio/1.0.0)，提议随头部一起发送
//  2. secio 密钥交换与 nonce 校验
//  3. 在加密流上协商 /mplex/6.7.0
//  4. 启动入站读取与出站泵，注册应答器
func (s *Session) bootstrap(ctx context.Context, d *Dialer, addr multiaddr.Multiaddr) error {
	_, expected := multiaddr.Split(addr)
	ch, err := secio.New(d.priv,
		secio.WithExpectedPeer(expected),
		secio.WithMaxFrameSize(s.cfg.MaxFrameSize))
	if err != nil {
		return err
	}

	// 1. 协商 secio
	propose, err := ch.Propose()
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(multistream.Write(ch.Codec().Encode(propose), protocolids.Secio)); err != nil {
		return fmt.Errorf("%w: write secio proposal: %w", types.ErrConnect, err)
	}
	br := bufio.NewReader(s.conn)
	if _, err := multistream.ReadProtocol(framing.NewVarint(0).NewDecoder(br), protocolids.Secio, true, nil); err != nil {
		return fmt.Errorf("negotiate secio: %w", err)
	}

	// 2. 握手
	frames := ch.Codec().NewDecoder(br)
	if err := ch.ReadSecio(ctx, frames, s.conn); err != nil {
		return fmt.Errorf("secio handshake: %w", err)
	}
	if err := ch.WriteNonce(s.conn); err != nil {
		return fmt.Errorf("secio handshake: %w", err)
	}
	if err := ch.ReadNonce(frames); err != nil {
		return fmt.Errorf("secio handshake: %w", err)
	}
	s.summary.PeerID = ch.RemotePeer()
	s.transition(StateConnected, StateSecured)
	log.Debug("secio 握手完成", "session", s.id, "peer", s.summary.PeerID.ShortString(), "suite", ch.Selected().String())

	// 3. 协商 mplex
	s.sc = ch.Conn(br, s.conn)
	if _, err := s.sc.Write(multistream.HeaderFor(protocolids.Mplex)); err != nil {
		return fmt.Errorf("%w: write mplex header: %w", types.ErrConnect, err)
	}
	plain := bufio.NewReader(s.sc)
	if _, err := multistream.ReadProtocol(framing.NewVarint(0).NewDecoder(plain), protocolids.Mplex, true, nil); err != nil {
		return fmt.Errorf("negotiate mplex: %w", err)
	}

	// 4. 启动
	s.mux = mplex.New()
	s.mux.ReceiveStreams(responder.New(d.localIdentify))
	s.served = make(chan struct{})
	go s.serve(plain)
	go s.pump()
	s.transition(StateSecured, StateMplexActive)
	return nil
}

func (s *Session) serve(r *bufio.Reader) {
	defer close(s.served)
	if err := s.mux.Serve(r); err != nil {
		log.Debug("入站读取结束", "session", s.id, "err", err)
	}
}

// pump 把 mplex 出站帧写入加密通道
func (s *Session) pump() {
	for b := range s.mux.Start() {
		if _, err := s.sc.Write(b); err != nil {
			log.Debug("出站写入失败", "session", s.id, "err", err)
			_ = s.mux.Close()
			return
		}
	}
}

func (s *Session) transition(from, to State) {
	if !s.state.CompareAndSwap(int32(from), int32(to)) {
		log.Warn("会话状态转换被忽略", "session", s.id, "from", from.String(), "to", to.String(), "current", s.State().String())
	}
}

// ID 会话 ID
func (s *Session) ID() string {
	return s.id
}

// State 当前状态
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run 并发执行 identify 与 kad，并把结果并入摘要
//
// 每个处理器有自己的超时，失败只意味着该协议没有数据；ctx 结束时所有处理器的流被重置。
// 只能调用一次，且必须在 Close 之前返回。
func (s *Session) Run(ctx context.Context) error {
	if s.State() != StateMplexActive {
		return ErrSessionClosed
	}
	if !s.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	msgs := make(chan ProtocolMessage, 2)
	var g errgroup.Group
	g.Go(func() error {
		info, err := mplex.NewStream(ctx, s.mux, identify.NewHandler(s.cfg.IdentifyTimeout))
		if err != nil {
			log.Debug("identify 没有数据", "session", s.id, "err", err)
			return nil
		}
		msgs <- IdentifyMessage{Info: info}
		return nil
	})
	g.Go(func() error {
		res, err := mplex.NewStream(ctx, s.mux, kad.NewHandler(s.cfg.KadTimeout))
		if err != nil {
			log.Debug("kad 没有数据", "session", s.id, "err", err)
			return nil
		}
		msgs <- ClosestPeersMessage{Result: res}
		return nil
	})
	_ = g.Wait()
	close(msgs)

	for msg := range msgs {
		s.discovered = append(s.discovered, s.summary.fold(msg)...)
	}
	s.discovered = multiaddr.UniqueAddrs(s.discovered)
	return nil
}

// Close 释放 mplex、secio 与连接，可重复调用
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs error
		if s.mux != nil {
			errs = multierr.Append(errs, s.mux.Close())
		}
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = multierr.Append(errs, err)
		}
		if s.served != nil {
			<-s.served
		}
		if s.mux != nil {
			s.mux.Wait()
		}
		s.summary.finalize(s.clock.Now())
		s.state.Store(int32(StateClosed))
		s.closeErr = errs
	})
	return s.closeErr
}

// Result 返回摘要与发现的地址；Close 之后才完整
func (s *Session) Result() *Result {
	return &Result{
		Summary:    s.summary,
		Discovered: s.discovered,
	}
}
