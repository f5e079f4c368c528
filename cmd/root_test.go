package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "batch", "locks"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "merchant-ops", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("offline")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"merchant", "products", "messages", "pricing", "output"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s", name)
	}
	assert.Equal(t, "o", runCmd.Flags().Lookup("output").Shorthand)
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
	assert.NotNil(t, batchCmd.Flags().Lookup("output-dir"))
}

func TestLocksCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range locksCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"set", "list", "clear"} {
		assert.True(t, names[name], "locks should have subcommand %q", name)
	}

	flag := locksSetCmd.Flags().Lookup("reason")
	require.NotNil(t, flag)
	assert.Equal(t, "Merchant override", flag.DefValue)
}
