package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/crateprov/crateprov/internal/errors"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, "https://static.crates.io/crates", cfg.Fetch.BaseURL)
	assert.Equal(t, []string{".rs"}, cfg.Match.Extensions)
	assert.Equal(t, 4, cfg.Verify.Workers)
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	t.Parallel()

	loader := &DefaultLoader{}
	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigLoadFailed)
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Parallel()

	loader := &DefaultLoader{}
	_, err := loader.Load("  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConfigLoadFailed)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "crateprov.toml")
	content := `[verify]
workers = 8

[match]
extensions = [".rs", ".toml"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := &DefaultLoader{}
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Verify.Workers)
	assert.Equal(t, []string{".rs", ".toml"}, cfg.Match.Extensions)
	// Untouched sections keep defaults.
	assert.Equal(t, "https://static.crates.io/crates", cfg.Fetch.BaseURL)
	assert.Equal(t, 120, cfg.Clone.TimeoutSeconds)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "zero workers",
			content: "[verify]\nworkers = 0\n",
		},
		{
			name:    "negative crawl delay",
			content: "[fetch]\ncrawl_delay_seconds = -1\n",
		},
		{
			name:    "extension without dot",
			content: "[match]\nextensions = [\"rs\"]\n",
		},
		{
			name:    "zero clone timeout",
			content: "[clone]\ntimeout_seconds = 0\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "crateprov.toml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			loader := &DefaultLoader{}
			_, err := loader.Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrConfigLoadFailed)
		})
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".crateprov.toml")

	loader := &DefaultLoader{}
	require.NoError(t, loader.Init(path))

	// Init output must load cleanly.
	cfg, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Fetch, cfg.Fetch)

	// A second init must refuse to overwrite.
	require.Error(t, loader.Init(path))
}
