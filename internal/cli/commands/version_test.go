package commands

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		info    BuildInfo
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "release build",
			info: BuildInfo{Version: "1.2.3", Commit: "abc1234", Date: "2026-01-02"},
			want: []string{"sqltree v1.2.3\n", "commit:   abc1234", "built:    2026-01-02", runtime.Version(), "sqlite"},
		},
		{
			name:    "dev build omits empty metadata",
			info:    BuildInfo{Version: "dev"},
			want:    []string{"sqltree vdev\n", "adapters:"},
			notWant: []string{"commit:", "built:"},
		},
		{
			name:    "short",
			info:    BuildInfo{Version: "0.1.0", Commit: "abc1234"},
			args:    []string{"--short"},
			want:    []string{"sqltree v0.1.0\n"},
			notWant: []string{"commit:", "adapters:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.info)
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetErr(&buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())

			out := buf.String()
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestVersionRejectsArgs(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{Version: "dev"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}
