// Package vcs provides version control system abstractions.
package vcs

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// Tags returns every tag peeled to the commit it targets.
	// Tags are returned sorted by name; a tag that does not resolve
	// to a commit yields a *RepositoryAccessError.
	Tags() ([]Tag, error)
	// Log returns a commit iterator starting from HEAD.
	Log(opts *LogOptions) (CommitIterator, error)
	// CommitObject returns the commit with the given hash.
	CommitObject(hash plumbing.Hash) (Commit, error)
	// Range returns the commits reachable from to but not from from,
	// newest first (git log from..to).
	Range(ctx context.Context, from, to plumbing.Hash) ([]Commit, error)
	// RepoPath returns the root path of the repository.
	RepoPath() string
}

// Reference represents a git reference (branch, tag, HEAD).
type Reference interface {
	Hash() plumbing.Hash
}

// Tag is a tag name resolved to its target commit.
type Tag struct {
	Name   string
	Commit plumbing.Hash
	When   time.Time
}

// LogOptions configures the commit log query.
type LogOptions struct {
	From  plumbing.Hash
	Since *time.Time
}

// CommitIterator iterates over commits.
type CommitIterator interface {
	ForEach(fn func(Commit) error) error
	Close()
}

// Commit represents a git commit.
type Commit interface {
	// Hash returns the commit hash.
	Hash() plumbing.Hash
	// NumParents returns the number of parent commits.
	NumParents() int
	// Parent returns the nth parent commit.
	Parent(n int) (Commit, error)
	// Tree returns the tree object for this commit.
	Tree() (Tree, error)
	// Author returns commit author information.
	Author() object.Signature
	// Message returns the commit message.
	Message() string
}

// TreeEntry represents a file or directory in a git tree.
type TreeEntry struct {
	Path  string
	Size  int64
	IsDir bool
}

// Tree represents a git tree object.
type Tree interface {
	// Diff computes differences between this tree and another.
	// Renames are not detected: a moved file is a deletion plus an addition.
	Diff(to Tree) (Changes, error)
	// Entries returns all files in the tree (recursively).
	Entries() ([]TreeEntry, error)
	// File returns the blob contents stored at path.
	File(path string) ([]byte, error)
}

// Changes represents a collection of file changes between trees.
type Changes []Change

// Change represents a single file change.
type Change interface {
	// FromName returns the source file name (empty for new files).
	FromName() string
	// ToName returns the destination file name (empty for deleted files).
	ToName() string
	// Patch computes the patch for this change.
	Patch() (Patch, error)
}

// Patch represents a diff patch.
type Patch interface {
	FilePatches() []FilePatch
}

// FilePatch represents changes to a single file.
type FilePatch interface {
	IsBinary() bool
	Chunks() []Chunk
}

// Chunk represents a chunk of changes within a file patch.
type Chunk interface {
	Type() ChunkType
	Content() string
}

// ChunkType represents the type of change in a chunk.
type ChunkType int

const (
	ChunkEqual ChunkType = iota
	ChunkAdd
	ChunkDelete
)

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
