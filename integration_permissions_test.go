package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/crateprov/crateprov/internal/config"
	"github.com/crateprov/crateprov/internal/gitrepo"
	"github.com/crateprov/crateprov/internal/perms"
)

// TestConfigFilePermissions verifies that configuration files
// are created with regular permissions.
func TestConfigFilePermissions(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	// Create a config using the default loader.
	loader := &config.DefaultLoader{}
	err := loader.Init(configPath)
	require.NoError(t, err)

	// Verify the file was created with regular permissions.
	info, err := os.Stat(configPath)
	require.NoError(t, err)
	require.False(t, info.IsDir())
	require.Equal(t, perms.RegularFile, info.Mode().Perm(),
		"Configuration file should be created with regular permissions (0644)")
}

// TestCloneCacheDirectoryPermissions verifies that clone cache directories
// are created with regular permissions.
func TestCloneCacheDirectoryPermissions(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cacheDir := filepath.Join(tempDir, "clones")
	logger := hclog.NewNullLogger()

	// Create the cache with an explicit directory to trigger creation.
	c, err := gitrepo.NewCloneCache(logger,
		gitrepo.WithCacheDirectory(cacheDir),
		gitrepo.WithKeepClones(true),
	)
	require.NoError(t, err)
	require.NotNil(t, c)

	// Verify the cache directory was created with regular permissions.
	info, err := os.Stat(cacheDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Equal(t, perms.RegularDir, info.Mode().Perm(),
		"Clone cache directory should be created with regular permissions (0755)")
}

// TestLogFilePermissions verifies that log files
// are created with regular permissions.
func TestLogFilePermissions(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "crateprov.log")

	// Create log file using the same pattern as internal/cmd/basecmd.go.
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, perms.RegularFile)
	require.NoError(t, err)

	_, err = f.WriteString("test log entry\n")
	require.NoError(t, err)

	err = f.Close()
	require.NoError(t, err)

	// Verify the file was created with regular permissions.
	info, err := os.Stat(logPath)
	require.NoError(t, err)
	require.False(t, info.IsDir())
	require.Equal(t, perms.RegularFile, info.Mode().Perm(),
		"Log file should be created with regular permissions (0644)")
}
