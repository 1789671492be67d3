package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetThenGet(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"config", "set", "workers", "8"})
	require.NoError(t, rootCmd.Execute())

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"config", "get", "workers"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "8\n", buf.String())
}

func TestConfigGet_UnknownKey(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"config", "get", "nope"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not set")
}

func TestConfigList_SortedKeys(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	require.NoError(t, configStore.Set("workers", int64(2)))
	require.NoError(t, configStore.Set("pdf.heading_ratio", 1.5))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"config", "list"})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "pdf.heading_ratio = 1.5\nworkers = 2\n", buf.String())
}

func TestConfigPath_PrintsLocation(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"config", "path"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "config.toml")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, int64(4), parseValue("4"))
	assert.Equal(t, int64(1), parseValue("1"))
	assert.Equal(t, 1.4, parseValue("1.4"))
	assert.Equal(t, "Calibri", parseValue("Calibri"))
}
