package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallConfig = `calendar:
  range: "2020-09-07..2020-09-09"
population:
  size: 4
schedule:
  daily_capacity: 3
store:
  type: jsonl
  path: %s
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Replace(smallConfig, "%s", filepath.Join(dir, "runs.jsonl"), 1)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestModelCommandWritesLP(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rotation.lp")
	_, err := execute(t, "model", "-c", writeConfig(t), "--format", "lp", "--out", out)
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Maximize")
	assert.Contains(t, string(data), "Subject To")
}

func TestModelCommandRejectsFormat(t *testing.T) {
	_, err := execute(t, "model", "-c", writeConfig(t), "--format", "mps", "--out", "")
	assert.Error(t, err)
}

func TestSolveAndRunsCommands(t *testing.T) {
	cfg := writeConfig(t)
	out, err := execute(t, "solve", "-c", cfg, "--format", "csv", "--out", "")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date,week,total,group_a,children", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2020-09-07,"))

	out, err = execute(t, "runs", "-c", cfg, "--status", "optimal")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "bnb")
}

func TestRunsWithoutStore(t *testing.T) {
	_, err := execute(t, "runs", "-c", "")
	assert.Error(t, err)
}
