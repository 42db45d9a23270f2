// Package gitrepo acquires upstream git repositories and answers
// content-hash and tag queries against them.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-hclog"

	errs "github.com/crateprov/crateprov/internal/errors"
)

// shallowPinRef is the local branch name a shallow fetch pins the declared
// commit to.
const shallowPinRef = "refs/heads/crateprov-pin"

// Repo is a materialized clone, scoped to the lifetime of one verification
// pass. Close releases per-pass resources; clones shared through the cache
// outlive Close and are released when the cache is closed.
type Repo interface {
	// HasBlob reports whether a blob with the given content hash exists in
	// the clone's object database. For a shallow single-commit clone this is
	// equivalent to membership in that commit's tree.
	HasBlob(h plumbing.Hash) bool

	// TagsAt returns the names of all tags pointing at the commit, directly
	// or via an annotated-tag dereference.
	TagsAt(commit plumbing.Hash) ([]string, error)

	Close() error
}

// Accessor acquires repository clones by URL and reference.
type Accessor interface {
	// Normalize maps a human-facing URL to a clone endpoint; false means unusable.
	Normalize(raw string) (string, bool)

	// ShallowClone acquires history pinned to a single commit. A commit that
	// cannot be fetched (missing upstream, or the attempt timed out) yields
	// an error wrapping errs.ErrCommitNotFound.
	ShallowClone(ctx context.Context, url string, commit plumbing.Hash) (Repo, error)

	// FullClone acquires the complete history reachable from the default
	// remote refs. Failures wrap errs.ErrCloneTimeout or errs.ErrRepoUnreachable.
	FullClone(ctx context.Context, url string) (Repo, error)
}

// GitAccessor implements Accessor using real git clones on local disk.
type GitAccessor struct {
	logger hclog.Logger
	cache  *CloneCache
}

// NewGitAccessor returns an accessor that materializes clones through cache.
func NewGitAccessor(logger hclog.Logger, cache *CloneCache) *GitAccessor {
	return &GitAccessor{
		logger: logger.Named("gitrepo"),
		cache:  cache,
	}
}

// Normalize implements Accessor.
func (a *GitAccessor) Normalize(raw string) (string, bool) {
	return Normalize(raw)
}

// ShallowClone fetches exactly one commit (plus tags) into a fresh bare
// repository. The pinned commit's objects are the only content in the object
// database, so blob presence equals membership in that commit's tree.
func (a *GitAccessor) ShallowClone(ctx context.Context, url string, commit plumbing.Hash) (Repo, error) {
	dir, err := a.cache.TempDir("shallow-")
	if err != nil {
		return nil, fmt.Errorf("failed to create shallow clone directory: %w", err)
	}

	repo, err := git.PlainInit(dir, true)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to init shallow clone: %w", err)
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{url},
	}); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to configure remote: %w", err)
	}

	a.logger.Debug("Shallow fetch", "url", url, "commit", commit.String())

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", commit, shallowPinRef))
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Depth:      1,
		Tags:       git.AllTags,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		_ = os.RemoveAll(dir)
		// A timeout here is handled like a missing commit: the caller
		// broadens to a full-history clone instead of failing.
		return nil, fmt.Errorf("%w: shallow fetch of %s from %s: %w", errs.ErrCommitNotFound, commit, url, err)
	}

	return &gitRepo{repo: repo, dir: dir, removeOnClose: true}, nil
}

// FullClone performs (or reuses) a bare clone of the repository's complete
// reachable history. Clones are cached per normalized URL within one run.
func (a *GitAccessor) FullClone(ctx context.Context, url string) (Repo, error) {
	dir, unlock := a.cache.Acquire(url)
	defer unlock()

	if repo, err := git.PlainOpen(dir); err == nil {
		a.logger.Debug("Reusing cached clone", "url", url, "dir", dir)
		return &gitRepo{repo: repo}, nil
	}

	a.logger.Debug("Full clone", "url", url, "dir", dir)

	repo, err := git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		// Leave no partial clone behind, later attempts must start clean.
		_ = os.RemoveAll(dir)

		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: full clone of %s: %w", errs.ErrCloneTimeout, url, err)
		}
		return nil, fmt.Errorf("%w: full clone of %s: %w", errs.ErrRepoUnreachable, url, err)
	}

	return &gitRepo{repo: repo}, nil
}

// gitRepo adapts a go-git repository to the Repo interface.
type gitRepo struct {
	repo *git.Repository
	dir  string

	// removeOnClose marks clones private to one pass (shallow clones).
	// Cached full clones are released by the CloneCache instead.
	removeOnClose bool
}

func (r *gitRepo) HasBlob(h plumbing.Hash) bool {
	return r.repo.Storer.HasEncodedObject(h) == nil
}

func (r *gitRepo) TagsAt(commit plumbing.Hash) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		// Annotated tags need a dereference; anything else is lightweight.
		if tag, terr := r.repo.TagObject(target); terr == nil {
			target = tag.Target
		}
		if target == commit {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return names, nil
}

func (r *gitRepo) Close() error {
	if r.removeOnClose && r.dir != "" {
		return os.RemoveAll(r.dir)
	}
	return nil
}
