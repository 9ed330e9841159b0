package report

import (
	"strings"
)

// Agent 解析后的 agent 字符串
//
// substrate 系节点的 agent 形如
//
//	substrate-node/2.0.0-49a4103f4-x86_64-linux-gnu (alice)
//	Parity Polkadot/v0.9.43-ba42b9ce51d (validator-7)
//
// 即 "<应用>/<版本>[-<提交>][-<平台>] [(<节点名>)]"。无法识别的部分留空，原文保存在 Raw。
type Agent struct {
	Raw      string `json:"raw"`
	App      string `json:"app,omitempty"`
	Version  string `json:"version,omitempty"`
	Commit   string `json:"commit,omitempty"`
	Platform string `json:"platform,omitempty"`
	NodeName string `json:"node_name,omitempty"`
}

// AgentParser 解析 agent 字符串
type AgentParser struct{}

// Parse 解析 agent 字符串；空串返回 nil
func (AgentParser) Parse(s string) *Agent {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	a := &Agent{Raw: s}

	rest := s
	// 节点名本身可以带括号，从第一个 " (" 开始截取
	if i := strings.Index(rest, " ("); i >= 0 && strings.HasSuffix(rest, ")") {
		a.NodeName = strings.TrimSpace(rest[i+2 : len(rest)-1])
		rest = strings.TrimSpace(rest[:i])
	}

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		a.App = rest
		return a
	}
	a.App = strings.TrimSpace(rest[:slash])
	version := strings.TrimSpace(rest[slash+1:])

	parts := strings.SplitN(version, "-", 3)
	a.Version = parts[0]
	switch {
	case len(parts) == 1:
	case isCommit(parts[1]):
		a.Commit = parts[1]
		if len(parts) == 3 {
			a.Platform = parts[2]
		}
	default:
		// 没有提交哈希，剩余全部视为平台
		a.Platform = strings.Join(parts[1:], "-")
	}
	return a
}

// isCommit 判断是否像 git 短哈希（至少 7 位十六进制）
func isCommit(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
