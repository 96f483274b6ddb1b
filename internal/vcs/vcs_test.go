package vcs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/defectmine/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// history builds c1 <- c2 <- c3 with tags on c1 (lightweight) and c3
// (annotated, named to sort before the lightweight tag).
func history(t *testing.T) (*testutil.GitRepo, Repository, []plumbing.Hash) {
	t.Helper()
	r := testutil.NewGitRepo(t)
	c1 := r.Commit("first", "alice", testutil.Day(0), map[string]string{"a/A.java": "one\n"})
	c2 := r.Commit("second", "bob", testutil.Day(1), map[string]string{"a/A.java": "one\ntwo\n"})
	c3 := r.Commit("third", "carol", testutil.Day(2), map[string]string{"b/B.java": "b\n"})
	r.Tag("v2", c1)
	r.AnnotatedTag("v1", c3, testutil.Day(30))

	repo, err := NewGitOpener().PlainOpen(r.Path)
	require.NoError(t, err)
	return r, repo, []plumbing.Hash{c1, c2, c3}
}

func TestGitOpener_PlainOpen(t *testing.T) {
	r, repo, _ := history(t)
	assert.Equal(t, r.Path, repo.RepoPath())

	_, err := NewGitOpener().PlainOpen(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, IsAccessError(err))
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	r, _, _ := history(t)
	repo, err := NewGitOpener().PlainOpenWithDetect(filepath.Join(r.Path, "a"))
	require.NoError(t, err)
	_, err = repo.Head()
	assert.NoError(t, err)
}

func TestGitRepository_Tags(t *testing.T) {
	_, repo, hashes := history(t)
	tags, err := repo.Tags()
	require.NoError(t, err)
	require.Len(t, tags, 2)

	// sorted by name; the annotated tag peels to its commit, not the tag object
	assert.Equal(t, "v1", tags[0].Name)
	assert.Equal(t, hashes[2], tags[0].Commit)
	assert.Equal(t, testutil.Day(2).Unix(), tags[0].When.Unix())
	assert.Equal(t, "v2", tags[1].Name)
	assert.Equal(t, hashes[0], tags[1].Commit)
}

func TestGitRepository_Range(t *testing.T) {
	_, repo, hashes := history(t)
	ctx := context.Background()

	commits, err := repo.Range(ctx, hashes[0], hashes[2])
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, hashes[2], commits[0].Hash())
	assert.Equal(t, hashes[1], commits[1].Hash())

	all, err := repo.Range(ctx, plumbing.ZeroHash, hashes[2])
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := repo.Range(ctx, hashes[2], hashes[2])
	require.NoError(t, err)
	assert.Empty(t, empty)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repo.Range(cancelled, hashes[0], hashes[2])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGitRepository_RangeConsecutiveWindows(t *testing.T) {
	_, repo, hashes := history(t)
	ctx := context.Background()
	git := repo.(*gitRepository)

	first, err := repo.Range(ctx, hashes[0], hashes[1])
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, hashes[1], git.reach.tip)
	assert.Len(t, git.reach.set, 2)

	// Starts where the last range ended, so the reachable set is carried over.
	second, err := repo.Range(ctx, hashes[1], hashes[2])
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, hashes[2], second[0].Hash())
	assert.Equal(t, hashes[2], git.reach.tip)
	assert.Len(t, git.reach.set, 3)

	// A start that does not match the cached tip walks from scratch.
	again, err := repo.Range(ctx, hashes[0], hashes[2])
	require.NoError(t, err)
	assert.Len(t, again, 2)
	back, err := repo.Range(ctx, hashes[0], hashes[1])
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, hashes[1], back[0].Hash())
}

func TestGitRepository_LogAndCommit(t *testing.T) {
	_, repo, hashes := history(t)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, hashes[2], head.Hash())

	iter, err := repo.Log(&LogOptions{From: head.Hash()})
	require.NoError(t, err)
	defer iter.Close()
	var authors []string
	require.NoError(t, iter.ForEach(func(c Commit) error {
		authors = append(authors, c.Author().Name)
		return nil
	}))
	assert.Equal(t, []string{"carol", "bob", "alice"}, authors)

	c, err := repo.CommitObject(hashes[1])
	require.NoError(t, err)
	assert.Equal(t, "second", c.Message())
	assert.Equal(t, 1, c.NumParents())
	parent, err := c.Parent(0)
	require.NoError(t, err)
	assert.Equal(t, hashes[0], parent.Hash())

	_, err = repo.CommitObject(plumbing.NewHash("deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"))
	assert.True(t, IsAccessError(err))
}

func TestGitTree_DiffEntriesFile(t *testing.T) {
	_, repo, hashes := history(t)
	c2, err := repo.CommitObject(hashes[1])
	require.NoError(t, err)
	c1, err := c2.Parent(0)
	require.NoError(t, err)

	from, err := c1.Tree()
	require.NoError(t, err)
	to, err := c2.Tree()
	require.NoError(t, err)

	changes, err := from.Diff(to)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "a/A.java", changes[0].FromName())
	assert.Equal(t, "a/A.java", changes[0].ToName())

	patch, err := changes[0].Patch()
	require.NoError(t, err)
	fps := patch.FilePatches()
	require.Len(t, fps, 1)
	assert.False(t, fps[0].IsBinary())
	var types []ChunkType
	for _, ch := range fps[0].Chunks() {
		types = append(types, ch.Type())
	}
	assert.Equal(t, []ChunkType{ChunkEqual, ChunkAdd}, types)

	entries, err := to.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TreeEntry{Path: "a/A.java", Size: 8}, entries[0])

	data, err := to.File("a/A.java")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))

	_, err = to.File("nope.java")
	assert.True(t, IsAccessError(err))
}

type otherTree struct{ Tree }

func TestGitTree_DiffRejectsForeignTree(t *testing.T) {
	_, repo, hashes := history(t)
	c, err := repo.CommitObject(hashes[0])
	require.NoError(t, err)
	tree, err := c.Tree()
	require.NoError(t, err)

	_, err = tree.Diff(otherTree{})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestWrap(t *testing.T) {
	r, _, hashes := history(t)
	repo := Wrap(r.Repo, r.Path)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, hashes[2], head.Hash())
}

func TestRepositoryAccessError(t *testing.T) {
	err := accessError("read blob", "A.java", assert.AnError)
	assert.Equal(t, "repository access: read blob A.java: "+assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)

	bare := &RepositoryAccessError{Op: "list", Err: assert.AnError}
	assert.Equal(t, "repository access: list: "+assert.AnError.Error(), bare.Error())
	assert.False(t, IsAccessError(assert.AnError))
}

type stubOpener struct{ Opener }

func TestSetDefaultOpener(t *testing.T) {
	original := DefaultOpener()
	defer SetDefaultOpener(original)

	stub := stubOpener{}
	SetDefaultOpener(stub)
	assert.Equal(t, Opener(stub), DefaultOpener())
}
