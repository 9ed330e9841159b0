package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"

	"github.com/dep2p/go-crawler/internal/core/framing"
	"github.com/dep2p/go-crawler/internal/core/multistream"
	"github.com/dep2p/go-crawler/internal/core/muxer/mplex"
	"github.com/dep2p/go-crawler/internal/core/security/secio"
	"github.com/dep2p/go-crawler/pkg/lib/crypto"
	"github.com/dep2p/go-crawler/pkg/lib/multiaddr"
	"github.com/dep2p/go-crawler/pkg/protocolids"
	"github.com/dep2p/go-crawler/pkg/types"
)

// Remote 测试用对端，实现监听侧的 multistream、secio 与 mplex
//
// 在回环地址上监听；DialFunc 忽略目标地址，总是连到这个监听器，
// 因此测试可以拨号任意公网形式的地址。
type Remote struct {
	priv crypto.PrivateKey

	// Identify 对 /ipfs/id/1.0.0 的回复（已编码、未加帧）；nil 时协商后不回复
	Identify []byte

	// Closest 读到 FIND_NODE 后依次写出的回复（已编码、未加帧）；nil 时不回复
	Closest [][]byte

	// Reject 对这些子协议回复 na
	Reject []types.ProtocolID

	// StallHandshake 发送提议后不再继续 secio 握手
	StallHandshake bool

	// Ping mplex 建立后向拨号方打开一个 ping 流；kad 回复在 ping 完成后才发出
	Ping bool

	pinged chan error

	ln     net.Listener
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRemote 创建测试对端
func NewRemote(priv crypto.PrivateKey) *Remote {
	ctx, cancel := context.WithCancel(context.Background())
	return &Remote{
		priv:   priv,
		pinged: make(chan error, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 在回环地址上开始监听
func (r *Remote) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	r.ln = ln

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				_ = r.serve(conn)
			}()
		}
	}()
	return nil
}

// DialFunc 返回连到本对端的拨号函数
func (r *Remote) DialFunc() DialFunc {
	return func(ctx context.Context, _ multiaddr.Multiaddr) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", r.ln.Addr().String())
	}
}

// Addr 监听地址（/ip4/127.0.0.1/tcp/<port>）
func (r *Remote) Addr() multiaddr.Multiaddr {
	a, err := multiaddr.FromNetAddr(r.ln.Addr())
	if err != nil {
		panic(err)
	}
	return a
}

// PeerID 对端身份
func (r *Remote) PeerID() types.PeerID {
	id, _ := crypto.IDFromPrivateKey(r.priv)
	return id
}

// Pinged 返回 ping 流的结果，仅在 Ping 为 true 时有值
func (r *Remote) Pinged() <-chan error {
	return r.pinged
}

// Close 停止监听并断开所有连接
func (r *Remote) Close() error {
	r.cancel()
	var err error
	if r.ln != nil {
		err = r.ln.Close()
	}
	r.wg.Wait()
	return err
}

func (r *Remote) serve(conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(r.ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	br := bufio.NewReader(conn)
	if _, err := multistream.Listen(framing.NewVarint(0).NewDecoder(br), conn, protocolids.Secio); err != nil {
		return err
	}

	ch, err := secio.New(r.priv)
	if err != nil {
		return err
	}
	propose, err := ch.Propose()
	if err != nil {
		return err
	}
	if _, err := conn.Write(ch.Codec().Encode(propose)); err != nil {
		return err
	}
	if r.StallHandshake {
		_, err := io.Copy(io.Discard, br)
		return err
	}

	frames := ch.Codec().NewDecoder(br)
	if err := ch.ReadSecio(r.ctx, frames, conn); err != nil {
		return err
	}
	if err := ch.WriteNonce(conn); err != nil {
		return err
	}
	if err := ch.ReadNonce(frames); err != nil {
		return err
	}

	sc := ch.Conn(br, conn)
	plain := bufio.NewReader(sc)
	if _, err := multistream.Listen(framing.NewVarint(0).NewDecoder(plain), sc, protocolids.Mplex); err != nil {
		return err
	}

	mux := mplex.New()
	pingDone := make(chan struct{})
	mux.ReceiveStreams(mplex.HandlerFunc[struct{}](func(ctx context.Context, s mplex.Stream) (struct{}, error) {
		return struct{}{}, r.handle(ctx, s, pingDone)
	}))
	go func() {
		for b := range mux.Start() {
			if _, err := sc.Write(b); err != nil {
				_ = mux.Close()
				return
			}
		}
	}()
	if r.Ping {
		go func() {
			defer close(pingDone)
			err := r.ping(mux)
			select {
			case r.pinged <- err:
			default:
			}
		}()
	} else {
		close(pingDone)
	}

	err = mux.Serve(plain)
	mux.Wait()
	return err
}

func (r *Remote) handle(ctx context.Context, s mplex.Stream, pingDone <-chan struct{}) error {
	dec := framing.NewVarint(0).NewDecoder(s)
	proto, err := multistream.Listen(dec, s, r.supported()...)
	if err != nil {
		return err
	}

	codec := framing.NewVarint(0)
	switch proto {
	case protocolids.Identify:
		if r.Identify == nil {
			<-ctx.Done()
			return ctx.Err()
		}
		_, err := s.Write(codec.Encode(r.Identify))
		return err
	case protocolids.Kad:
		if _, err := dec.Next(); err != nil {
			return fmt.Errorf("read find_node: %w", err)
		}
		select {
		case <-pingDone:
		case <-ctx.Done():
			return ctx.Err()
		}
		if r.Closest == nil {
			<-ctx.Done()
			return ctx.Err()
		}
		for _, reply := range r.Closest {
			if _, err := s.Write(codec.Encode(reply)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Remote) supported() []types.ProtocolID {
	var out []types.ProtocolID
	for _, id := range []types.ProtocolID{protocolids.Identify, protocolids.Kad} {
		if !slices.Contains(r.Reject, id) {
			out = append(out, id)
		}
	}
	return out
}

// ping 在拨号方打开的 mplex 上发一个 32 字节 ping 并校验回显
func (r *Remote) ping(mux *mplex.Multiplexer) error {
	_, err := mplex.NewStream(r.ctx, mux, mplex.HandlerFunc[struct{}](func(ctx context.Context, s mplex.Stream) (struct{}, error) {
		payload := bytes.Repeat([]byte{0x5a}, 32)
		if _, err := s.Write(multistream.Write(payload, protocolids.Ping)); err != nil {
			return struct{}{}, err
		}
		dec := framing.NewVarint(0).NewDecoder(s)
		if _, err := multistream.ReadProtocol(dec, protocolids.Ping, true, nil); err != nil {
			return struct{}{}, err
		}
		echo := make([]byte, len(payload))
		if _, err := io.ReadFull(dec.Reader(), echo); err != nil {
			return struct{}{}, err
		}
		if !bytes.Equal(echo, payload) {
			return struct{}{}, errors.New("ping echo mismatch")
		}
		return struct{}{}, nil
	}))
	return err
}
