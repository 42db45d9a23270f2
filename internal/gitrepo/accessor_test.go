package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/crateprov/crateprov/internal/errors"
	"github.com/crateprov/crateprov/internal/files"
)

// newFixtureRepo creates an empty non-bare repository in a temp dir.
func newFixtureRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	return repo, dir
}

// commitFile writes path with data and commits it, returning the commit hash.
func commitFile(t *testing.T, repo *git.Repository, dir, path string, data []byte, msg string) plumbing.Hash {
	t.Helper()

	wt, err := repo.Worktree()
	require.NoError(t, err)

	full := filepath.Join(dir, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))

	_, err = wt.Add(path)
	require.NoError(t, err)

	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Fixture",
			Email: "fixture@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return hash
}

func newTestCache(t *testing.T) *CloneCache {
	t.Helper()

	cache, err := NewCloneCache(hclog.NewNullLogger(), WithCacheDirectory(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	return cache
}

func TestHasBlob_PathIndependent(t *testing.T) {
	t.Parallel()

	repo, dir := newFixtureRepo(t)
	content := []byte("pub fn answer() -> u32 { 42 }\n")
	commitFile(t, repo, dir, "deep/nested/lib.rs", content, "initial")

	r := &gitRepo{repo: repo}

	// Content hashing carries no path information, the blob is found no
	// matter where the artifact places the file.
	hashes := BlobHashes(content)
	require.Len(t, hashes, 1)
	assert.True(t, r.HasBlob(hashes[0]))

	absent := BlobHashes([]byte("pub fn answer() -> u32 { 43 }\n"))
	assert.False(t, r.HasBlob(absent[0]))
}

func TestHasBlob_InMemoryStorage(t *testing.T) {
	t.Parallel()

	// Blob and tag queries go through the storer interface, so they behave
	// the same over in-memory storage as over an on-disk clone.
	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	content := []byte("pub mod provenance;\n")
	require.NoError(t, util.WriteFile(fs, "src/lib.rs", content, 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add("src/lib.rs")
	require.NoError(t, err)

	commit, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Fixture",
			Email: "fixture@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	_, err = repo.CreateTag("0.1.0", commit, nil)
	require.NoError(t, err)

	r := &gitRepo{repo: repo}

	assert.True(t, r.HasBlob(BlobHashes(content)[0]))

	tags, err := r.TagsAt(commit)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.1.0"}, tags)
}

func TestTagsAt_LightweightAndAnnotated(t *testing.T) {
	t.Parallel()

	repo, dir := newFixtureRepo(t)
	first := commitFile(t, repo, dir, "src/lib.rs", []byte("// v1\n"), "first")
	second := commitFile(t, repo, dir, "src/lib.rs", []byte("// v2\n"), "second")

	_, err := repo.CreateTag("1.0.4", first, nil) // lightweight
	require.NoError(t, err)

	_, err = repo.CreateTag("v1.0.4", first, &git.CreateTagOptions{ // annotated
		Tagger: &object.Signature{
			Name:  "Fixture",
			Email: "fixture@example.com",
			When:  time.Now(),
		},
		Message: "release 1.0.4",
	})
	require.NoError(t, err)

	r := &gitRepo{repo: repo}

	tags, err := r.TagsAt(first)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.0.4", "v1.0.4"}, tags)

	tags, err = r.TagsAt(second)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestFullClone_LocalRepository(t *testing.T) {
	t.Parallel()

	repo, dir := newFixtureRepo(t)
	content := []byte("fn main() { println!(\"hi\"); }\n")
	commitFile(t, repo, dir, "src/main.rs", content, "initial")

	accessor := NewGitAccessor(hclog.NewNullLogger(), newTestCache(t))

	clone, err := accessor.FullClone(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = clone.Close() }()

	assert.True(t, clone.HasBlob(BlobHashes(content)[0]))

	// A second acquisition of the same URL reuses the materialized clone.
	again, err := accessor.FullClone(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = again.Close() }()

	assert.True(t, again.HasBlob(BlobHashes(content)[0]))
}

func TestFullClone_Unreachable(t *testing.T) {
	t.Parallel()

	accessor := NewGitAccessor(hclog.NewNullLogger(), newTestCache(t))

	_, err := accessor.FullClone(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrRepoUnreachable)
}

func TestShallowClone_MissingCommit(t *testing.T) {
	t.Parallel()

	repo, dir := newFixtureRepo(t)
	commitFile(t, repo, dir, "src/lib.rs", []byte("// content\n"), "initial")

	accessor := NewGitAccessor(hclog.NewNullLogger(), newTestCache(t))

	stale := plumbing.NewHash("ea9ea80c023ba3913b2ab0a1c1d0a3bf7e6c6db5")
	_, err := accessor.ShallowClone(context.Background(), dir, stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCommitNotFound)
}

func TestCloneCache_AcquireIsExclusivePerURL(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	dir1, unlock1 := cache.Acquire("https://github.com/org/repo")

	acquired := make(chan string)
	go func() {
		dir2, unlock2 := cache.Acquire("https://github.com/org/repo")
		unlock2()
		acquired <- dir2
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while materialization lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock1()

	select {
	case dir2 := <-acquired:
		assert.Equal(t, dir1, dir2)
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

func TestCloneCache_DifferentURLsDoNotBlock(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	dir1, unlock1 := cache.Acquire("https://github.com/org/one")
	defer unlock1()

	dir2, unlock2 := cache.Acquire("https://github.com/org/two")
	defer unlock2()

	assert.NotEqual(t, dir1, dir2)
}

func TestCloneCache_DefaultDirIsUserCacheDir(t *testing.T) {
	// t.Setenv precludes t.Parallel.
	xdg := t.TempDir()
	t.Setenv(files.EnvVarXDGCacheHome, xdg)

	cache, err := NewCloneCache(hclog.NewNullLogger(), WithKeepClones(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	// Kept clones must land somewhere the user can find them, never in an
	// anonymous temp directory.
	want := filepath.Join(xdg, files.AppDirName(), "clones")
	assert.Equal(t, want, cache.Dir())

	info, err := os.Stat(cache.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCloneCache_CloseRemovesClones(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "clones")

	cache, err := NewCloneCache(hclog.NewNullLogger(), WithCacheDirectory(dir))
	require.NoError(t, err)

	_, err = os.Stat(dir)
	require.NoError(t, err)

	require.NoError(t, cache.Close())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCloneCache_KeepClones(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "clones")

	cache, err := NewCloneCache(
		hclog.NewNullLogger(),
		WithCacheDirectory(dir),
		WithKeepClones(true),
	)
	require.NoError(t, err)

	require.NoError(t, cache.Close())

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
