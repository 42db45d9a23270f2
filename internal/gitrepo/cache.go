package gitrepo

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/crateprov/crateprov/internal/files"
)

// CloneCache manages the on-disk directories backing repository clones.
// Full clones are keyed by normalized repository URL so that multiple crates
// published from one multi-crate repository share a single clone within a
// run. Materialization holds a per-URL lock; reads of a materialized clone
// are concurrent and unsynchronized.
//
// NewCloneCache should be used to create instances of CloneCache.
type CloneCache struct {
	// dir is the directory where clones are stored.
	dir string

	// keep retains clones after Close instead of removing them.
	keep bool

	// logger is used for logging cache operations.
	logger hclog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCloneCache creates a new clone cache.
func NewCloneCache(logger hclog.Logger, opts ...CacheOption) (*CloneCache, error) {
	options, err := NewCacheOptions(opts...)
	if err != nil {
		return nil, err
	}

	dir := options.dir
	if dir == "" {
		// No explicit directory selects the user cache dir, so kept clones
		// land somewhere the user can find them.
		base, err := files.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate clone cache directory: %w", err)
		}
		dir = filepath.Join(base, "clones")
	}
	if err := files.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create clone cache directory: %w", err)
	}

	return &CloneCache{
		dir:    dir,
		keep:   options.keep,
		logger: logger.Named("clonecache"),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the cache's root directory.
func (c *CloneCache) Dir() string {
	return c.dir
}

// Acquire returns the clone directory for a normalized URL with its
// materialization lock held. The returned func releases the lock; callers
// must release once the clone is materialized (or abandoned).
func (c *CloneCache) Acquire(url string) (string, func()) {
	key := fmt.Sprintf("%x", sha256.Sum256([]byte(url)))

	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	c.mu.Unlock()

	l.Lock()

	return filepath.Join(c.dir, key), l.Unlock
}

// TempDir creates a fresh directory inside the cache for a clone private to
// one verification pass.
func (c *CloneCache) TempDir(prefix string) (string, error) {
	return os.MkdirTemp(c.dir, prefix+"*")
}

// Close releases the cache. Clones are removed unless the cache was
// configured to keep them.
func (c *CloneCache) Close() error {
	if c.keep {
		c.logger.Debug("Keeping clones", "dir", c.dir)
		return nil
	}

	c.logger.Debug("Removing clones", "dir", c.dir)
	return os.RemoveAll(c.dir)
}

// CacheOption defines a functional option for configuring CloneCache.
type CacheOption func(*CacheOptions) error

// CacheOptions contains optional configuration for the clone cache.
type CacheOptions struct {
	dir  string
	keep bool
}

func NewCacheOptions(opts ...CacheOption) (CacheOptions, error) {
	var o CacheOptions

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return CacheOptions{}, err
		}
	}

	return o, nil
}

// WithCacheDirectory sets the directory clones are materialized in.
func WithCacheDirectory(dir string) CacheOption {
	return func(o *CacheOptions) error {
		o.dir = dir
		return nil
	}
}

// WithKeepClones retains clones on disk after the cache is closed.
func WithKeepClones(keep bool) CacheOption {
	return func(o *CacheOptions) error {
		o.keep = keep
		return nil
	}
}
