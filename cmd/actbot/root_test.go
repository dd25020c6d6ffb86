package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/actbot"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "actbot version "+actbot.Version+"\n", out)
}

func TestStagesCommand(t *testing.T) {
	out, err := run(t, "stages")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 19)
	assert.Contains(t, lines[1], "What's your name?")

	out, err = run(t, "stages", "--graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
}

func TestSessionCommand_EmptyStore(t *testing.T) {
	t.Setenv("ACTBOT_STORE", "file")
	t.Setenv("ACTBOT_STORE_PATH", t.TempDir())

	out, err := run(t, "session", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, err = run(t, "session", "inspect", "guest_missing")
	assert.Error(t, err)
}
