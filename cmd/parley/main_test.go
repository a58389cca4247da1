package main

import (
	"bytes"
	"testing"

	"github.com/aretw0/parley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "parley version "+parley.Version+"\n", execute(t, "version"))
}

func TestGraphCommand(t *testing.T) {
	out := execute(t, "graph", "--store", "memory")
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "check_answer")
}

func TestValidateCommand(t *testing.T) {
	out := execute(t, "validate", "--store", "memory")
	assert.Contains(t, out, "entry 'greet'")
	assert.Contains(t, out, "Graph is valid!")
}

func TestSessionLsCommand(t *testing.T) {
	out := execute(t, "session", "ls", "--store", "memory")
	assert.Contains(t, out, "No sessions found.")
}
