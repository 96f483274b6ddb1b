// Package testutil provides helpers for building throwaway git repositories in tests.
package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// Epoch is the base timestamp used by GitRepo when callers pass offsets.
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Day returns Epoch shifted by n days.
func Day(n int) time.Time {
	return Epoch.AddDate(0, 0, n)
}

// GitRepo is an on-disk repository with a worktree, created under t.TempDir().
type GitRepo struct {
	t    *testing.T
	Path string
	Repo *git.Repository
}

// NewGitRepo initialises an empty repository.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo")
	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("PlainInit error: %v", err)
	}
	return &GitRepo{t: t, Path: path, Repo: repo}
}

// Commit writes files (path -> content) and commits them as author at when.
func (r *GitRepo) Commit(message, author string, when time.Time, files map[string]string) plumbing.Hash {
	r.t.Helper()
	w, err := r.Repo.Worktree()
	if err != nil {
		r.t.Fatalf("Worktree error: %v", err)
	}
	for name, content := range files {
		WriteFile(r.t, filepath.Join(r.Path, name), content)
		if _, err := w.Add(name); err != nil {
			r.t.Fatalf("Add(%s) error: %v", name, err)
		}
	}
	return r.commit(w, message, author, when)
}

// Delete removes paths and commits the removal.
func (r *GitRepo) Delete(message, author string, when time.Time, paths ...string) plumbing.Hash {
	r.t.Helper()
	w, err := r.Repo.Worktree()
	if err != nil {
		r.t.Fatalf("Worktree error: %v", err)
	}
	for _, name := range paths {
		if _, err := w.Remove(name); err != nil {
			r.t.Fatalf("Remove(%s) error: %v", name, err)
		}
	}
	return r.commit(w, message, author, when)
}

// ResetTo hard-resets the worktree and the current branch to hash, so the
// next commit starts a line of history diverging from whatever followed it.
func (r *GitRepo) ResetTo(hash plumbing.Hash) {
	r.t.Helper()
	w, err := r.Repo.Worktree()
	if err != nil {
		r.t.Fatalf("Worktree error: %v", err)
	}
	if err := w.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset}); err != nil {
		r.t.Fatalf("Reset(%s) error: %v", hash, err)
	}
}

// Merge writes files and commits them with HEAD as first parent and other as
// second parent.
func (r *GitRepo) Merge(message, author string, when time.Time, other plumbing.Hash, files map[string]string) plumbing.Hash {
	r.t.Helper()
	w, err := r.Repo.Worktree()
	if err != nil {
		r.t.Fatalf("Worktree error: %v", err)
	}
	head, err := r.Repo.Head()
	if err != nil {
		r.t.Fatalf("Head error: %v", err)
	}
	for name, content := range files {
		WriteFile(r.t, filepath.Join(r.Path, name), content)
		if _, err := w.Add(name); err != nil {
			r.t.Fatalf("Add(%s) error: %v", name, err)
		}
	}
	return r.commit(w, message, author, when, head.Hash(), other)
}

func (r *GitRepo) commit(w *git.Worktree, message, author string, when time.Time, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	sig := &object.Signature{
		Name:  author,
		Email: author + "@example.com",
		When:  when,
	}
	hash, err := w.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.t.Fatalf("Commit error: %v", err)
	}
	return hash
}

// Tag creates a lightweight tag on hash.
func (r *GitRepo) Tag(name string, hash plumbing.Hash) {
	r.t.Helper()
	if _, err := r.Repo.CreateTag(name, hash, nil); err != nil {
		r.t.Fatalf("CreateTag(%s) error: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag on hash.
func (r *GitRepo) AnnotatedTag(name string, hash plumbing.Hash, when time.Time) {
	r.t.Helper()
	_, err := r.Repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "tagger", Email: "tagger@example.com", When: when},
		Message: name,
	})
	if err != nil {
		r.t.Fatalf("CreateTag(%s) error: %v", name, err)
	}
}

// Lines returns n newline-terminated lines, handy for sizing diffs.
func Lines(prefix string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(prefix)
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('\n')
	}
	return b.String()
}
