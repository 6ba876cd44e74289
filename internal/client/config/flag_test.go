package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-b", "remote", "-dsn", "postgres://x", "-i", "10"}, expectPanic: false,
			expected: &Config{Backend: "remote", RemoteDSN: "postgres://x", SessionCheckInterval: 10 * time.Second}},
		{name: "Test2 dev and foreign flags", args: []string{"cmd", "-c", "cfg.json", "-dev", "-k", "memory"}, expectPanic: false,
			expected: &Config{KVDriver: "memory", DevMenu: true}},
		{name: "Test3 incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
