package mplex

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/dep2p/go-crawler/internal/util/logger"
	"github.com/dep2p/go-crawler/pkg/types"
)

var log = logger.Logger("mplex")

// defaultOutboundBuffer 出站帧队列长度
const defaultOutboundBuffer = 64

// bufferedFrames 每个流最多缓存的未读入站负载（以单帧上限计）
const bufferedFrames = 4

// Handler 流处理器：消费一个流并产生结果
type Handler[T any] interface {
	HandleStream(ctx context.Context, s Stream) (T, error)
}

// HandlerFunc 函数适配器
type HandlerFunc[T any] func(ctx context.Context, s Stream) (T, error)

// HandleStream 调用 f
func (f HandlerFunc[T]) HandleStream(ctx context.Context, s Stream) (T, error) {
	return f(ctx, s)
}

type streamKey struct {
	id    uint64
	local bool
}

// Multiplexer 单个会话的流表与出站帧队列
type Multiplexer struct {
	maxPayload  int
	maxBuffered int

	mu      sync.Mutex
	streams map[streamKey]*stream
	nextID  uint64
	inbound Handler[struct{}]

	out       chan []byte
	startOnce sync.Once
	pumped    chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closed    chan struct{}
	closeOnce sync.Once
	handlers  sync.WaitGroup
}

// Option 多路复用器选项
type Option func(*Multiplexer)

// WithMaxPayload 单帧负载上限（读写共用）
func WithMaxPayload(n int) Option {
	return func(m *Multiplexer) {
		if n > 0 {
			m.maxPayload = n
		}
	}
}

// WithMaxBuffered 每个流未读入站数据的上限，超过后流被重置
func WithMaxBuffered(n int) Option {
	return func(m *Multiplexer) {
		if n > 0 {
			m.maxBuffered = n
		}
	}
}

// New 创建多路复用器
func New(opts ...Option) *Multiplexer {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Multiplexer{
		maxPayload: MaxPayloadSize,
		streams:    make(map[streamKey]*stream),
		out:        make(chan []byte, defaultOutboundBuffer),
		ctx:        ctx,
		cancel:     cancel,
		closed:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.maxBuffered == 0 {
		m.maxBuffered = bufferedFrames * m.maxPayload
	}
	return m
}

// ============================================================================
//                              出站
// ============================================================================

// Start 返回有序的出站帧序列（已编码），多路复用器关闭后序列结束
//
// 多次调用返回同一序列。
func (m *Multiplexer) Start() <-chan []byte {
	m.startOnce.Do(func() {
		m.pumped = make(chan []byte)
		go m.pump()
	})
	return m.pumped
}

func (m *Multiplexer) pump() {
	defer close(m.pumped)
	for {
		select {
		case b := <-m.out:
			select {
			case m.pumped <- b:
			case <-m.closed:
				return
			}
		case <-m.closed:
			return
		}
	}
}

func (m *Multiplexer) send(f Frame) error {
	b := f.Encode()
	select {
	case <-m.closed:
		return ErrConnClosed
	default:
	}
	select {
	case m.out <- b:
		return nil
	case <-m.closed:
		return ErrConnClosed
	}
}

// NewStream 打开本端发起的流并在其上运行 h，返回 h 的结果
//
// ID 从 0 单调递增且不复用。ctx 结束时流被重置；h 出错时流被重置，
// 否则关闭写方向。
func NewStream[T any](ctx context.Context, m *Multiplexer, h Handler[T]) (T, error) {
	var zero T

	m.mu.Lock()
	select {
	case <-m.closed:
		m.mu.Unlock()
		return zero, ErrConnClosed
	default:
	}
	id := m.nextID
	m.nextID++
	s := newStream(m, id, true)
	m.streams[s.key()] = s
	m.mu.Unlock()

	if err := m.send(Frame{ID: id, Flag: FlagNewStream, Payload: []byte(strconv.FormatUint(id, 10))}); err != nil {
		m.forget(s)
		return zero, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.Reset()
	})
	defer stop()

	res, err := h.HandleStream(ctx, s)
	finish(s, err)
	return res, err
}

// ReceiveStreams 注册对端打开的流的处理器，在会话生命周期内有效
func (m *Multiplexer) ReceiveStreams(h Handler[struct{}]) {
	m.mu.Lock()
	m.inbound = h
	m.mu.Unlock()
}

func finish(s *stream, err error) {
	if err != nil {
		_ = s.Reset()
		return
	}
	_ = s.CloseWrite()
}

// ============================================================================
//                              入站
// ============================================================================

// Serve 单一读协程：逐帧读取并分发，直到出错；返回前关闭多路复用器
func (m *Multiplexer) Serve(r *bufio.Reader) error {
	defer m.Close()
	for {
		f, err := ReadFrame(r, m.maxPayload)
		if err != nil {
			return err
		}
		if err := m.OnNext(f); err != nil {
			return err
		}
	}
}

// OnNext 分发一个入站帧
func (m *Multiplexer) OnNext(f Frame) error {
	if f.Flag > FlagResetInitiator {
		return fmt.Errorf("%w: %d", ErrUnknownFlag, f.Flag)
	}
	if len(f.Payload) > m.maxPayload {
		return fmt.Errorf("%w: payload %d > %d", types.ErrFraming, len(f.Payload), m.maxPayload)
	}
	if f.Flag == FlagNewStream {
		m.accept(f.ID)
		return nil
	}

	key := streamKey{id: f.ID, local: !f.Flag.fromInitiator()}
	m.mu.Lock()
	s := m.streams[key]
	m.mu.Unlock()
	if s == nil {
		log.Debug("未知流的帧，已丢弃", "id", f.ID, "flag", f.Flag.String())
		return nil
	}

	switch f.Flag {
	case FlagMessageReceiver, FlagMessageInitiator:
		if !s.push(f.Payload) {
			log.Debug("流未读数据超过上限，重置", "stream", s.String(), "limit", m.maxBuffered)
			_ = s.Reset()
		}
	case FlagCloseReceiver, FlagCloseInitiator:
		if s.remoteClose() {
			m.forget(s)
		}
	case FlagResetReceiver, FlagResetInitiator:
		s.markReset()
		m.forget(s)
	}
	return nil
}

// accept 处理 NEW_STREAM：登记流并在独立协程中运行入站处理器
func (m *Multiplexer) accept(id uint64) {
	key := streamKey{id: id, local: false}

	m.mu.Lock()
	if _, dup := m.streams[key]; dup {
		m.mu.Unlock()
		log.Warn("入站流 ID 重复，忽略", "id", id)
		return
	}
	s := newStream(m, id, false)
	m.streams[key] = s
	h := m.inbound
	m.mu.Unlock()

	if h == nil {
		log.Debug("没有入站处理器，重置流", "id", id)
		_ = s.Reset()
		return
	}

	m.handlers.Add(1)
	go func() {
		defer m.handlers.Done()
		_, err := h.HandleStream(m.ctx, s)
		if err != nil {
			log.Debug("入站流处理失败", "stream", s.String(), "err", err)
		}
		finish(s, err)
	}()
}

// ============================================================================
//                              流表
// ============================================================================

func (m *Multiplexer) forget(s *stream) {
	m.mu.Lock()
	if cur, ok := m.streams[s.key()]; ok && cur == s {
		delete(m.streams, s.key())
	}
	m.mu.Unlock()
}

// NumStreams 流表中的条目数
func (m *Multiplexer) NumStreams() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

// Done 多路复用器关闭时关闭
func (m *Multiplexer) Done() <-chan struct{} {
	return m.closed
}

// Close 关闭多路复用器：取消入站处理器、唤醒所有阻塞读，可重复调用
func (m *Multiplexer) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		close(m.closed)
		streams := m.streams
		m.streams = make(map[streamKey]*stream)
		m.mu.Unlock()

		m.cancel()
		for _, s := range streams {
			s.wake()
		}
		log.Debug("多路复用器已关闭", "openStreams", len(streams))
	})
	return nil
}

// Wait 等待所有入站处理器返回
func (m *Multiplexer) Wait() {
	m.handlers.Wait()
}
