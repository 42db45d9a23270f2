// Package files contains small filesystem helpers shared across commands.
package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crateprov/crateprov/internal/perms"
)

// EnvVarXDGCacheHome is the XDG Base Directory env var name for cache files.
const EnvVarXDGCacheHome = "XDG_CACHE_HOME"

// AppDirName returns the name of the application directory for use in
// user-specific operations where data is being written.
func AppDirName() string {
	return "crateprov"
}

// UserCacheDir returns the user-specific cache directory for crateprov,
// honoring XDG_CACHE_HOME when set.
func UserCacheDir() (string, error) {
	if xdg := os.Getenv(EnvVarXDGCacheHome); xdg != "" {
		return filepath.Join(xdg, AppDirName()), nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user cache directory: %w", err)
	}

	return filepath.Join(base, AppDirName()), nil
}

// EnsureDir creates the directory (and any parents) if it does not exist.
// An existing regular directory is left untouched; a non-directory at the
// path is an error.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", dir)
		}
		return nil
	case os.IsNotExist(err):
		return os.MkdirAll(dir, perms.RegularDir)
	default:
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
}
