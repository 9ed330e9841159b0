package mplex

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// connect 连接两个多路复用器并在测试结束时关闭
func connect(t *testing.T, a, b *Multiplexer) {
	t.Helper()
	Connect(a, b)
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
}

// drain 丢弃出站帧
func drain(m *Multiplexer) {
	go func() {
		for range m.Start() {
		}
	}()
}

var echo = HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
	data, err := io.ReadAll(s)
	if err != nil {
		return struct{}{}, err
	}
	_, err = s.Write(data)
	return struct{}{}, err
})

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ============================================================================
//                              流生命周期
// ============================================================================

func TestNewStream_Echo(t *testing.T) {
	a, b := New(), New()
	b.ReceiveStreams(echo)
	connect(t, a, b)

	got, err := NewStream(testContext(t), a, HandlerFunc[string](func(ctx context.Context, s Stream) (string, error) {
		if _, err := s.Write([]byte("hello ")); err != nil {
			return "", err
		}
		if _, err := s.Write([]byte("mplex")); err != nil {
			return "", err
		}
		if err := s.CloseWrite(); err != nil {
			return "", err
		}
		b, err := io.ReadAll(s)
		return string(b), err
	}))
	require.NoError(t, err)
	assert.Equal(t, "hello mplex", got)
}

func TestNewStream_MonotonicIDs(t *testing.T) {
	a := New()
	drain(a)
	defer a.Close()

	idOf := HandlerFunc[uint64](func(ctx context.Context, s Stream) (uint64, error) {
		return s.ID(), nil
	})
	for want := uint64(0); want < 5; want++ {
		got, err := NewStream(testContext(t), a, idOf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNewStream_AnnouncesDecimalID(t *testing.T) {
	a := New()
	defer a.Close()
	frames := a.Start()

	go func() {
		_, _ = NewStream(testContext(t), a, HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
			return struct{}{}, nil
		}))
	}()

	first := <-frames
	f, err := ReadFrame(bufio.NewReader(bytesReader(first)), MaxPayloadSize)
	require.NoError(t, err)
	assert.Equal(t, FlagNewStream, f.Flag)
	assert.Equal(t, "0", string(f.Payload))
}

func TestNewStream_HandlerErrorResets(t *testing.T) {
	a, b := New(), New()
	observed := make(chan error, 1)
	b.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		_, err := io.ReadAll(s)
		observed <- err
		return struct{}{}, nil
	}))
	connect(t, a, b)

	boom := errors.New("boom")
	_, err := NewStream(testContext(t), a, HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		_, _ = s.Write([]byte("partial"))
		return struct{}{}, boom
	}))
	assert.ErrorIs(t, err, boom)

	select {
	case err := <-observed:
		assert.ErrorIs(t, err, ErrStreamReset)
	case <-time.After(5 * time.Second):
		t.Fatal("remote never observed reset")
	}
}

func TestNewStream_ContextCancelResets(t *testing.T) {
	a, b := New(), New()
	// 对端永不回复
	b.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	}))
	connect(t, a, b)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewStream(ctx, a, HandlerFunc[[]byte](func(ctx context.Context, s Stream) ([]byte, error) {
		return io.ReadAll(s)
	}))
	assert.ErrorIs(t, err, ErrStreamReset)
	assert.Eventually(t, func() bool { return a.NumStreams() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStream_HalfClose(t *testing.T) {
	a, b := New(), New()
	// 对端在本端 CloseWrite 之后继续写
	b.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		if _, err := io.ReadAll(s); err != nil {
			return struct{}{}, err
		}
		_, err := s.Write([]byte("late reply"))
		return struct{}{}, err
	}))
	connect(t, a, b)

	got, err := NewStream(testContext(t), a, HandlerFunc[string](func(ctx context.Context, s Stream) (string, error) {
		if err := s.CloseWrite(); err != nil {
			return "", err
		}
		_, err := s.Write([]byte("after close"))
		if !errors.Is(err, ErrWriteClosed) {
			return "", fmt.Errorf("write after close: %v", err)
		}
		b, err := io.ReadAll(s)
		return string(b), err
	}))
	require.NoError(t, err)
	assert.Equal(t, "late reply", got)
	assert.Eventually(t, func() bool { return a.NumStreams() == 0 && b.NumStreams() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStream_LargeWriteSplit(t *testing.T) {
	a, b := New(WithMaxPayload(1024)), New(WithMaxPayload(1024))
	b.ReceiveStreams(echo)
	connect(t, a, b)

	payload := make([]byte, 10*1024+17)
	for i := range payload {
		payload[i] = byte(i)
	}
	got, err := NewStream(testContext(t), a, HandlerFunc[[]byte](func(ctx context.Context, s Stream) ([]byte, error) {
		if _, err := s.Write(payload); err != nil {
			return nil, err
		}
		if err := s.CloseWrite(); err != nil {
			return nil, err
		}
		return io.ReadAll(s)
	}))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// ============================================================================
//                              入站分发
// ============================================================================

// 任意交错的多流帧，每个流按发送顺序重组
func TestOnNext_PerStreamOrdering(t *testing.T) {
	const (
		numStreams = 8
		perStream  = 50
	)

	m := New()
	drain(m)
	defer m.Close()

	var (
		mu      sync.Mutex
		results = make(map[uint64]string)
		wg      sync.WaitGroup
	)
	wg.Add(numStreams)
	m.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		defer wg.Done()
		data, err := io.ReadAll(s)
		mu.Lock()
		results[s.ID()] = string(data)
		mu.Unlock()
		return struct{}{}, err
	}))

	for id := uint64(0); id < numStreams; id++ {
		require.NoError(t, m.OnNext(Frame{ID: id, Flag: FlagNewStream, Payload: []byte(fmt.Sprint(id))}))
	}

	rng := rand.New(rand.NewSource(42))
	next := make([]int, numStreams)
	want := make([]string, numStreams)
	for remaining := numStreams * perStream; remaining > 0; {
		id := rng.Intn(numStreams)
		if next[id] == perStream {
			continue
		}
		chunk := fmt.Sprintf("[%d:%d]", id, next[id])
		want[id] += chunk
		next[id]++
		remaining--
		require.NoError(t, m.OnNext(Frame{ID: uint64(id), Flag: FlagMessageInitiator, Payload: []byte(chunk)}))
	}
	for id := uint64(0); id < numStreams; id++ {
		require.NoError(t, m.OnNext(Frame{ID: id, Flag: FlagCloseInitiator}))
	}

	wg.Wait()
	for id := 0; id < numStreams; id++ {
		assert.Equal(t, want[id], results[uint64(id)], "stream %d", id)
	}
}

func TestOnNext_UnknownStreamDropped(t *testing.T) {
	m := New()
	defer m.Close()
	assert.NoError(t, m.OnNext(Frame{ID: 9, Flag: FlagMessageReceiver, Payload: []byte("x")}))
	assert.NoError(t, m.OnNext(Frame{ID: 9, Flag: FlagResetInitiator}))
	assert.ErrorIs(t, m.OnNext(Frame{ID: 9, Flag: Flag(7)}), ErrUnknownFlag)
}

func TestOnNext_NoInboundHandler(t *testing.T) {
	m := New()
	defer m.Close()
	frames := m.Start()

	require.NoError(t, m.OnNext(Frame{ID: 4, Flag: FlagNewStream, Payload: []byte("4")}))
	f, err := ReadFrame(bufio.NewReader(bytesReader(<-frames)), MaxPayloadSize)
	require.NoError(t, err)
	assert.Equal(t, Frame{ID: 4, Flag: FlagResetReceiver, Payload: []byte{}}, f)
	assert.Zero(t, m.NumStreams())
}

// 处理器不读取时，入站数据超过上限后流被重置而不是无限缓存
func TestOnNext_BufferLimitResets(t *testing.T) {
	m := New(WithMaxPayload(16))
	defer m.Close()
	frames := m.Start()

	streams := make(chan *stream, 1)
	release := make(chan struct{})
	readErr := make(chan error, 1)
	m.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		streams <- s.(*stream)
		<-release
		_, err := s.Read(make([]byte, 1))
		readErr <- err
		return struct{}{}, err
	}))

	require.NoError(t, m.OnNext(Frame{ID: 2, Flag: FlagNewStream}))
	s := <-streams

	chunk := make([]byte, 16)
	for i := 0; i < bufferedFrames; i++ {
		require.NoError(t, m.OnNext(Frame{ID: 2, Flag: FlagMessageInitiator, Payload: chunk}))
	}
	assert.Equal(t, bufferedFrames*16, s.Buffered())
	assert.Equal(t, 1, m.NumStreams())

	require.NoError(t, m.OnNext(Frame{ID: 2, Flag: FlagMessageInitiator, Payload: chunk}))
	f, err := ReadFrame(bufio.NewReader(bytesReader(<-frames)), MaxPayloadSize)
	require.NoError(t, err)
	assert.Equal(t, Frame{ID: 2, Flag: FlagResetReceiver, Payload: []byte{}}, f)
	assert.Zero(t, s.Buffered())
	assert.Zero(t, m.NumStreams())

	close(release)
	assert.ErrorIs(t, <-readErr, ErrStreamReset)
}

// 读走的数据不再计入上限
func TestStream_BufferDrainsOnRead(t *testing.T) {
	m := New(WithMaxPayload(16), WithMaxBuffered(32))
	defer m.Close()
	drain(m)

	streams := make(chan *stream, 1)
	m.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		streams <- s.(*stream)
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	}))
	require.NoError(t, m.OnNext(Frame{ID: 0, Flag: FlagNewStream}))
	s := <-streams

	buf := make([]byte, 16)
	for i := 0; i < 8; i++ {
		require.NoError(t, m.OnNext(Frame{ID: 0, Flag: FlagMessageInitiator, Payload: make([]byte, 16)}))
		n, err := io.ReadFull(s, buf)
		require.NoError(t, err)
		assert.Equal(t, 16, n)
		assert.Zero(t, s.Buffered())
	}
	assert.Equal(t, 1, m.NumStreams())
}

// 本端发起与对端发起的同号流互不干扰
func TestOnNext_IDSpacesDisjoint(t *testing.T) {
	a, b := New(), New()
	inbound := make(chan uint64, 1)
	a.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		inbound <- s.ID()
		_, err := io.ReadAll(s)
		return struct{}{}, err
	}))
	b.ReceiveStreams(echo)
	connect(t, a, b)

	// b 打开 0 号流，a 也打开自己的 0 号流
	go func() {
		_, _ = NewStream(testContext(t), b, HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
			return struct{}{}, s.CloseWrite()
		}))
	}()
	assert.Equal(t, uint64(0), <-inbound)

	got, err := NewStream(testContext(t), a, HandlerFunc[string](func(ctx context.Context, s Stream) (string, error) {
		_, _ = s.Write([]byte("mine"))
		_ = s.CloseWrite()
		b, err := io.ReadAll(s)
		return string(b), err
	}))
	require.NoError(t, err)
	assert.Equal(t, "mine", got)
}

// ============================================================================
//                              关闭
// ============================================================================

func TestClose_WakesReaders(t *testing.T) {
	m := New()
	drain(m)

	readErr := make(chan error, 1)
	go func() {
		_, _ = NewStream(context.Background(), m, HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
			_, err := s.Read(make([]byte, 1))
			readErr <- err
			return struct{}{}, err
		}))
	}()

	assert.Eventually(t, func() bool { return m.NumStreams() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	select {
	case err := <-readErr:
		assert.ErrorIs(t, err, ErrConnClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("reader not woken")
	}

	_, err := NewStream(context.Background(), m, echo)
	assert.ErrorIs(t, err, ErrConnClosed)

	_, open := <-m.Start()
	assert.False(t, open)
}

func TestClose_CancelsInboundHandlers(t *testing.T) {
	m := New()
	drain(m)
	canceled := make(chan struct{})
	m.ReceiveStreams(HandlerFunc[struct{}](func(ctx context.Context, s Stream) (struct{}, error) {
		<-ctx.Done()
		close(canceled)
		return struct{}{}, ctx.Err()
	}))
	require.NoError(t, m.OnNext(Frame{ID: 0, Flag: FlagNewStream}))
	m.Close()

	select {
	case <-canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("inbound handler not canceled")
	}
	m.Wait()
}
