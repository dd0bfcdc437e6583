package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{name: "unset", info: Info{}, expected: "dev"},
		{name: "untagged commit", info: Info{CommitHash: "abc1234"}, expected: "dev(abc1234)"},
		{
			name:     "release",
			info:     Info{Version: "1.0.0", CommitHash: "abc123", OS: "linux", Arch: "amd64", Branch: "main"},
			expected: "1.0.0(abc123)/linux-amd64",
		},
		{
			name:     "feature branch",
			info:     Info{Version: "1.0.0", CommitHash: "abc123", OS: "darwin", Arch: "arm64", Branch: "chat-rag"},
			expected: "1.0.0(abc123)[chat-rag]/darwin-arm64",
		},
		{
			name:     "prerelease wins over snapshot",
			info:     Info{Version: "1.0.0", Prerelease: "rc1", Snapshot: true},
			expected: "1.0.0-rc1",
		},
		{
			name:     "snapshot",
			info:     Info{Version: "1.0.0", Snapshot: true, Branch: "HEAD", OS: "windows"},
			expected: "1.0.0-snapshot/windows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.String())
		})
	}
}

func TestCurrentUsesInjectedValues(t *testing.T) {
	t.Cleanup(func() {
		Version, CommitHash, Snapshot = "", "", ""
	})
	Version, CommitHash, Snapshot = "v0.3.0", "deadbee", "true"

	info := Current()
	assert.Equal(t, "v0.3.0", info.Version)
	assert.Equal(t, "deadbee", info.CommitHash)
	assert.True(t, info.Snapshot)
	assert.Equal(t, "hela/v0.3.0(deadbee)-snapshot", UserAgent())
}
