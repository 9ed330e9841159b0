package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAgentParser_Parse 测试 agent 解析
func TestAgentParser_Parse(t *testing.T) {
	tests := []struct {
		in   string
		want Agent
	}{
		{
			in: "substrate-node/2.0.0-49a4103f4-x86_64-linux-gnu (alice)",
			want: Agent{App: "substrate-node", Version: "2.0.0", Commit: "49a4103f4",
				Platform: "x86_64-linux-gnu", NodeName: "alice"},
		},
		{
			in:   "Parity Polkadot/v0.9.43-ba42b9ce51d (validator-7)",
			want: Agent{App: "Parity Polkadot", Version: "v0.9.43", Commit: "ba42b9ce51d", NodeName: "validator-7"},
		},
		{
			in:   "substrate-node/2.0",
			want: Agent{App: "substrate-node", Version: "2.0"},
		},
		{
			in:   "moonbeam/0.8.0-x86_64-linux-gnu",
			want: Agent{App: "moonbeam", Version: "0.8.0", Platform: "x86_64-linux-gnu"},
		},
		{
			in:   "go-ipfs",
			want: Agent{App: "go-ipfs"},
		},
		{
			in:   "edgeware-node/3.0.5-abc-x86_64 (my node (eu))",
			want: Agent{App: "edgeware-node", Version: "3.0.5", Platform: "abc-x86_64", NodeName: "my node (eu)"},
		},
	}

	var p AgentParser
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := p.Parse(tt.in)
			require.NotNil(t, got)
			tt.want.Raw = tt.in
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestAgentParser_Empty(t *testing.T) {
	var p AgentParser
	assert.Nil(t, p.Parse(""))
	assert.Nil(t, p.Parse("   "))
}
