package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink 报告输出
type Sink interface {
	// Emit 输出一条记录，可并发调用
	Emit(Record) error

	// Close 刷新并关闭输出
	Close() error
}

// JSONSink 每条记录输出一行 JSON
type JSONSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONSink 在 w 上创建 JSON 行输出；w 实现 io.Closer 时 Close 会关闭它
func NewJSONSink(w io.Writer) *JSONSink {
	s := &JSONSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Open 按路径打开输出，"-" 表示标准输出
//
// 文件以追加方式打开，重启后不会覆盖之前的报告。
func Open(path string) (*JSONSink, error) {
	if path == "-" || path == "" {
		return &JSONSink{enc: json.NewEncoder(os.Stdout)}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // G304: 用户指定的输出路径是预期行为
	if err != nil {
		return nil, fmt.Errorf("open report output: %w", err)
	}
	return NewJSONSink(f), nil
}

// Emit 输出一条记录
func (s *JSONSink) Emit(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(r)
}

// Close 关闭底层输出
func (s *JSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// MemorySink 在内存中保存记录
type MemorySink struct {
	mu      sync.Mutex
	records []Record
	notify  chan struct{}
}

// NewMemorySink 创建内存输出
func NewMemorySink() *MemorySink {
	return &MemorySink{notify: make(chan struct{}, 1)}
}

// Emit 保存一条记录
func (s *MemorySink) Emit(r Record) error {
	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Close 无操作
func (s *MemorySink) Close() error { return nil }

// Records 返回已保存记录的副本
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// Notify 每次 Emit 后可读（合并多次）
func (s *MemorySink) Notify() <-chan struct{} {
	return s.notify
}

var (
	_ Sink = (*JSONSink)(nil)
	_ Sink = (*MemorySink)(nil)
)
