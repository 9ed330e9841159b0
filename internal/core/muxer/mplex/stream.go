package mplex

import (
	"io"
	"strconv"
	"sync"
)

// Stream 处理器看到的流视图
type Stream interface {
	io.Reader
	io.Writer

	// CloseWrite 关闭本端写方向，仍可继续读
	CloseWrite() error

	// Reset 立即放弃流，双方向都失效
	Reset() error

	// ID 流 ID（在同一方向的流中唯一）
	ID() uint64
}

// stream 流表中的条目，只由 Multiplexer 持有
type stream struct {
	m     *Multiplexer
	id    uint64
	local bool

	mu           sync.Mutex
	queue        [][]byte
	readBuf      []byte
	buffered     int
	remoteClosed bool
	localClosed  bool
	reset        bool
	notify       chan struct{}
}

var _ Stream = (*stream)(nil)

func newStream(m *Multiplexer, id uint64, local bool) *stream {
	return &stream{
		m:      m,
		id:     id,
		local:  local,
		notify: make(chan struct{}, 1),
	}
}

func (s *stream) key() streamKey {
	return streamKey{id: s.id, local: s.local}
}

func (s *stream) ID() uint64 {
	return s.id
}

func (s *stream) String() string {
	dir := "in"
	if s.local {
		dir = "out"
	}
	return dir + "/" + strconv.FormatUint(s.id, 10)
}

func (s *stream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// push 追加入站数据，由单一读协程调用
//
// 未读数据超过 maxBuffered 时丢弃本帧并返回 false，调用方负责重置流。
func (s *stream) push(b []byte) bool {
	s.mu.Lock()
	if s.reset || s.remoteClosed {
		s.mu.Unlock()
		return true
	}
	if s.buffered+len(b) > s.m.maxBuffered {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, b)
	s.buffered += len(b)
	s.mu.Unlock()
	s.wake()
	return true
}

// Buffered 已到达但尚未读取的字节数
func (s *stream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffered
}

// Read 按到达顺序读取入站数据；对端关闭且数据读完后返回 io.EOF
func (s *stream) Read(p []byte) (int, error) {
	for {
		s.mu.Lock()
		if len(s.readBuf) == 0 && len(s.queue) > 0 {
			s.readBuf, s.queue = s.queue[0], s.queue[1:]
		}
		switch {
		case len(s.readBuf) > 0:
			n := copy(p, s.readBuf)
			s.readBuf = s.readBuf[n:]
			s.buffered -= n
			s.mu.Unlock()
			return n, nil
		case s.reset:
			s.mu.Unlock()
			return 0, ErrStreamReset
		case s.remoteClosed:
			s.mu.Unlock()
			return 0, io.EOF
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-s.m.closed:
			s.mu.Lock()
			pending := len(s.queue) > 0 || len(s.readBuf) > 0
			s.mu.Unlock()
			if !pending {
				return 0, ErrConnClosed
			}
		}
	}
}

// Write 写出数据，超过单帧上限时拆分
func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	switch {
	case s.reset:
		s.mu.Unlock()
		return 0, ErrStreamReset
	case s.localClosed:
		s.mu.Unlock()
		return 0, ErrWriteClosed
	}
	s.mu.Unlock()

	written := 0
	for written < len(p) || len(p) == 0 {
		end := min(written+s.m.maxPayload, len(p))
		chunk := append([]byte(nil), p[written:end]...)
		if err := s.m.send(Frame{ID: s.id, Flag: messageFlag(s.local), Payload: chunk}); err != nil {
			return written, err
		}
		written = end
		if len(p) == 0 {
			break
		}
	}
	return written, nil
}

// CloseWrite 发送 CLOSE；双方都关闭后流离开流表
func (s *stream) CloseWrite() error {
	s.mu.Lock()
	if s.localClosed || s.reset {
		s.mu.Unlock()
		return nil
	}
	s.localClosed = true
	done := s.remoteClosed
	s.mu.Unlock()

	err := s.m.send(Frame{ID: s.id, Flag: closeFlag(s.local)})
	if done {
		s.m.forget(s)
	}
	return err
}

// Reset 发送 RESET 并立即离开流表
func (s *stream) Reset() error {
	if !s.markReset() {
		return nil
	}
	s.m.forget(s)
	return s.m.send(Frame{ID: s.id, Flag: resetFlag(s.local)})
}

// markReset 标记为重置，返回是否由本次调用完成
func (s *stream) markReset() bool {
	s.mu.Lock()
	if s.reset {
		s.mu.Unlock()
		return false
	}
	s.reset = true
	s.queue, s.readBuf, s.buffered = nil, nil, 0
	s.mu.Unlock()
	s.wake()
	return true
}

// remoteClose 处理对端的 CLOSE，返回流是否已完全关闭
func (s *stream) remoteClose() bool {
	s.mu.Lock()
	s.remoteClosed = true
	done := s.localClosed
	s.mu.Unlock()
	s.wake()
	return done
}
