package mplex

import (
	"bufio"
	"io"
)

// Connect 用内存管道连接两个多路复用器，供测试使用
//
// 任一方关闭后另一方的 Serve 读到 EOF 并随之关闭。
func Connect(a, b *Multiplexer) {
	link(a, b)
	link(b, a)
}

// NewPair 创建一对已连接的多路复用器
func NewPair(opts ...Option) (*Multiplexer, *Multiplexer) {
	a, b := New(opts...), New(opts...)
	Connect(a, b)
	return a, b
}

func link(from, to *Multiplexer) {
	pr, pw := io.Pipe()
	go func() {
		for frame := range from.Start() {
			if _, err := pw.Write(frame); err != nil {
				break
			}
		}
		pw.Close()
	}()
	go func() {
		_ = to.Serve(bufio.NewReader(pr))
		pr.Close()
	}()
}
