package discovery

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
)

func addr(t *testing.T, s string) multiaddr.Multiaddr {
	t.Helper()
	a, err := multiaddr.NewMultiaddr(s)
	require.NoError(t, err)
	return a
}

func next(t *testing.T, ch <-chan multiaddr.Multiaddr) multiaddr.Multiaddr {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(time.Second):
		t.Fatal("no address from queue")
		return nil
	}
}

// TestQueue_Dedup 排队中的地址不重复入队
func TestQueue_Dedup(t *testing.T) {
	q := NewQueue()
	a := addr(t, "/ip4/203.0.113.5/tcp/30333")

	assert.Equal(t, Accepted, q.Submit(a))
	assert.Equal(t, Pending, q.Submit(addr(t, "/ip4/203.0.113.5/tcp/30333")))
	assert.Equal(t, 1, q.Len())
}

// TestQueue_Recent 取出后在重访间隔内被节流
func TestQueue_Recent(t *testing.T) {
	q := NewQueue(WithRecheckAfter(time.Hour))
	a := addr(t, "/ip4/203.0.113.5/tcp/30333")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Listen(ctx)

	require.Equal(t, Accepted, q.Submit(a))
	assert.True(t, a.Equal(next(t, ch)))

	assert.Equal(t, Recent, q.Submit(a))
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 1, q.RecentLen())
}

// TestQueue_RecentExpires 重访间隔过后可以再次入队
func TestQueue_RecentExpires(t *testing.T) {
	q := NewQueue(WithRecheckAfter(50 * time.Millisecond))
	a := addr(t, "/ip4/203.0.113.5/tcp/30333")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Listen(ctx)

	require.Equal(t, Accepted, q.Submit(a))
	next(t, ch)

	assert.Eventually(t, func() bool {
		return q.Submit(a) == Accepted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueue_NoThrottle(t *testing.T) {
	q := NewQueue(WithRecheckAfter(0))
	a := addr(t, "/ip4/203.0.113.5/tcp/30333")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Listen(ctx)

	require.Equal(t, Accepted, q.Submit(a))
	next(t, ch)
	assert.Equal(t, Accepted, q.Submit(a))
	assert.Equal(t, 0, q.RecentLen())
}

// TestQueue_Full 队列满时丢弃
func TestQueue_Full(t *testing.T) {
	q := NewQueue(WithSize(2))
	assert.Equal(t, Accepted, q.Submit(addr(t, "/ip4/203.0.113.1/tcp/1")))
	assert.Equal(t, Accepted, q.Submit(addr(t, "/ip4/203.0.113.2/tcp/1")))
	assert.Equal(t, Full, q.Submit(addr(t, "/ip4/203.0.113.3/tcp/1")))
	assert.Equal(t, Full, q.Submit(nil))
}

// TestQueue_Order 先进先出
func TestQueue_Order(t *testing.T) {
	q := NewQueue()
	var addrs []multiaddr.Multiaddr
	for i := 1; i <= 5; i++ {
		addrs = append(addrs, addr(t, fmt.Sprintf("/ip4/203.0.113.%d/tcp/30333", i)))
	}
	assert.Equal(t, 5, q.SubmitAll(addrs))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Listen(ctx)
	for _, want := range addrs {
		assert.Equal(t, want.String(), next(t, ch).String())
	}
}

// TestQueue_ListenClosesOnCancel ctx 结束后 channel 关闭
func TestQueue_ListenClosesOnCancel(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Listen(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

// TestQueue_ConcurrentSubmit 并发提交同一批地址，每个地址只入队一次
func TestQueue_ConcurrentSubmit(t *testing.T) {
	q := NewQueue()
	var addrs []multiaddr.Multiaddr
	for i := 0; i < 50; i++ {
		addrs = append(addrs, addr(t, fmt.Sprintf("/ip4/198.51.100.%d/tcp/30333", i)))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := q.SubmitAll(addrs)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, total)
	assert.Equal(t, 50, q.Len())
}

func TestSubmitResult_String(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "recent", Recent.String())
	assert.Equal(t, "unknown", SubmitResult(42).String())
}
