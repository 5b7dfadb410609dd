package instructionfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tettuan/tmux-monitor/internal/instructionfile"
)

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_EmptyPathYieldsPassthrough(t *testing.T) {
	rules, err := instructionfile.Load("")
	require.NoError(t, err)
	cmd, ok := rules.CommandFor("bash")
	assert.False(t, ok)
	assert.Empty(t, cmd)
}

func TestLoad_ParsesOverridesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instructions.yaml")
	writeYAML(t, path, `
overrides:
  - pattern: "zsh"
    command: "cld --resume"
  - pattern: "*sh"
    command: "cld"
`)

	rules, err := instructionfile.Load(path)
	require.NoError(t, err)

	cmd, ok := rules.CommandFor("zsh")
	require.True(t, ok)
	assert.Equal(t, "cld --resume", cmd)

	cmd, ok = rules.CommandFor("bash")
	require.True(t, ok)
	assert.Equal(t, "cld", cmd)

	_, ok = rules.CommandFor("node")
	assert.False(t, ok)
}

func TestLoad_InvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instructions.yaml")
	writeYAML(t, path, "not: [valid: yaml")

	_, err := instructionfile.Load(path)
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instructions.yaml")
	writeYAML(t, path, `
overrides:
  - pattern: "bash"
    command: "cld"
`)

	rules, err := instructionfile.Load(path)
	require.NoError(t, err)

	w, err := instructionfile.NewWatcher(path, rules)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.NoError(t, w.Start())

	writeYAML(t, path, `
overrides:
  - pattern: "bash"
    command: "cld --resume"
`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cmd, ok := rules.CommandFor("bash"); ok && cmd == "cld --resume" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("instruction file override was not reloaded in time")
}
