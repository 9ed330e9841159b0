package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server 指标 HTTP 端点
type Server struct {
	addr    string
	path    string
	handler http.Handler

	srv *http.Server
	ln  net.Listener
}

// NewServer 创建指标端点
func NewServer(addr, path string, handler http.Handler) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{
		addr:    addr,
		path:    path,
		handler: handler,
	}
}

// Start 开始监听
//
// 监听失败同步返回；之后的 Serve 错误只记录日志。
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	mux := http.NewServeMux()
	mux.Handle(s.path, s.handler)
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("指标端点异常退出", "error", err)
		}
	}()
	log.Info("指标端点已启动", "addr", ln.Addr().String(), "path", s.path)
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop 关闭端点
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
