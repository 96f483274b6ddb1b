package vcs

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpen opens an existing git repository.
func (o *GitOpener) PlainOpen(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, accessError("open", path, err)
	}
	return &gitRepository{repo: repo, path: path}, nil
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, accessError("open", path, err)
	}
	return &gitRepository{repo: repo, path: path}, nil
}

// Wrap adapts an already opened go-git repository.
func Wrap(repo *git.Repository, path string) Repository {
	return &gitRepository{repo: repo, path: path}
}

// gitRepository wraps go-git Repository.
type gitRepository struct {
	repo *git.Repository
	path string

	mu sync.Mutex
	// reach holds every commit reachable from the end of the last Range, so
	// walking consecutive windows visits each commit once.
	reach ancestry
}

type ancestry struct {
	tip plumbing.Hash
	set map[plumbing.Hash]bool
}

// takeAncestry hands over the cached reachable set when it belongs to tip.
func (r *gitRepository) takeAncestry(tip plumbing.Hash) map[plumbing.Hash]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reach.set == nil || r.reach.tip != tip {
		return nil
	}
	set := r.reach.set
	r.reach = ancestry{}
	return set
}

func (r *gitRepository) storeAncestry(tip plumbing.Hash, set map[plumbing.Hash]bool) {
	r.mu.Lock()
	r.reach = ancestry{tip: tip, set: set}
	r.mu.Unlock()
}

func (r *gitRepository) RepoPath() string {
	return r.path
}

func (r *gitRepository) Head() (Reference, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, accessError("resolve", "HEAD", err)
	}
	return &gitReference{ref: ref}, nil
}

func (r *gitRepository) Tags() ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, accessError("list", "tags", err)
	}
	defer iter.Close()

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		commit, err := r.peel(ref.Hash())
		if err != nil {
			return accessError("peel tag", ref.Name().Short(), err)
		}
		tags = append(tags, Tag{
			Name:   ref.Name().Short(),
			Commit: commit.Hash,
			When:   commit.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}

// peel follows annotated tags until it reaches a commit.
func (r *gitRepository) peel(hash plumbing.Hash) (*object.Commit, error) {
	for {
		tag, err := r.repo.TagObject(hash)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return r.repo.CommitObject(hash)
		}
		if err != nil {
			return nil, err
		}
		if tag.TargetType != plumbing.TagObject {
			return tag.Commit()
		}
		hash = tag.Target
	}
}

func (r *gitRepository) Log(opts *LogOptions) (CommitIterator, error) {
	gitOpts := &git.LogOptions{}
	if opts != nil {
		gitOpts.From = opts.From
		gitOpts.Since = opts.Since
	}
	iter, err := r.repo.Log(gitOpts)
	if err != nil {
		return nil, accessError("log", gitOpts.From.String(), err)
	}
	return &gitCommitIterator{iter: iter}, nil
}

func (r *gitRepository) CommitObject(hash plumbing.Hash) (Commit, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, accessError("read commit", hash.String(), err)
	}
	return &gitCommit{commit: commit}, nil
}

func (r *gitRepository) Range(ctx context.Context, from, to plumbing.Hash) ([]Commit, error) {
	exclude := r.takeAncestry(from)
	if exclude == nil {
		exclude = make(map[plumbing.Hash]bool)
		if !from.IsZero() {
			start, err := r.repo.CommitObject(from)
			if err != nil {
				return nil, accessError("read commit", from.String(), err)
			}
			iter := object.NewCommitPreorderIter(start, nil, nil)
			err = iter.ForEach(func(c *object.Commit) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				exclude[c.Hash] = true
				return nil
			})
			iter.Close()
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				return nil, accessError("walk", from.String(), err)
			}
		}
	}

	end, err := r.repo.CommitObject(to)
	if err != nil {
		return nil, accessError("read commit", to.String(), err)
	}

	var commits []Commit
	iter := object.NewCommitPreorderIter(end, exclude, nil)
	defer iter.Close()
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, &gitCommit{commit: c})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, accessError("walk", from.String()+".."+to.String(), err)
	}

	// exclude is closed under parents, so with the window added it is
	// exactly what to reaches.
	for _, c := range commits {
		exclude[c.Hash()] = true
	}
	r.storeAncestry(to, exclude)
	return commits, nil
}

// gitReference wraps go-git Reference.
type gitReference struct {
	ref *plumbing.Reference
}

func (r *gitReference) Hash() plumbing.Hash {
	return r.ref.Hash()
}

// gitCommitIterator wraps go-git CommitIter.
type gitCommitIterator struct {
	iter object.CommitIter
}

func (i *gitCommitIterator) ForEach(fn func(Commit) error) error {
	return i.iter.ForEach(func(c *object.Commit) error {
		return fn(&gitCommit{commit: c})
	})
}

func (i *gitCommitIterator) Close() {
	i.iter.Close()
}

// gitCommit wraps go-git Commit.
type gitCommit struct {
	commit *object.Commit
}

func (c *gitCommit) Hash() plumbing.Hash {
	return c.commit.Hash
}

func (c *gitCommit) NumParents() int {
	return c.commit.NumParents()
}

func (c *gitCommit) Parent(n int) (Commit, error) {
	parent, err := c.commit.Parent(n)
	if err != nil {
		return nil, accessError("read parent of", c.commit.Hash.String(), err)
	}
	return &gitCommit{commit: parent}, nil
}

func (c *gitCommit) Tree() (Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, accessError("read tree of", c.commit.Hash.String(), err)
	}
	return &gitTree{tree: tree}, nil
}

func (c *gitCommit) Author() object.Signature {
	return c.commit.Author
}

func (c *gitCommit) Message() string {
	return c.commit.Message
}

// gitTree wraps go-git Tree.
type gitTree struct {
	tree *object.Tree
}

func (t *gitTree) Diff(to Tree) (Changes, error) {
	gt, ok := to.(*gitTree)
	if !ok {
		return nil, ErrInvalidType
	}
	objChanges, err := object.DiffTreeWithOptions(context.Background(), t.tree, gt.tree, &object.DiffTreeOptions{})
	if err != nil {
		return nil, accessError("diff", t.tree.Hash.String()+".."+gt.tree.Hash.String(), err)
	}
	changes := make(Changes, len(objChanges))
	for i, c := range objChanges {
		changes[i] = &gitChange{change: c}
	}
	return changes, nil
}

func (t *gitTree) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	err := t.tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, TreeEntry{
			Path: f.Name,
			Size: f.Size,
		})
		return nil
	})
	if err != nil {
		return nil, accessError("walk tree", t.tree.Hash.String(), err)
	}
	return entries, nil
}

func (t *gitTree) File(path string) ([]byte, error) {
	f, err := t.tree.File(path)
	if err != nil {
		return nil, accessError("read blob", path, err)
	}
	rd, err := f.Reader()
	if err != nil {
		return nil, accessError("read blob", path, err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, accessError("read blob", path, err)
	}
	return data, nil
}

// gitChange wraps go-git Change.
type gitChange struct {
	change *object.Change
}

func (c *gitChange) FromName() string {
	return c.change.From.Name
}

func (c *gitChange) ToName() string {
	return c.change.To.Name
}

func (c *gitChange) Patch() (Patch, error) {
	patch, err := c.change.Patch()
	if err != nil {
		name := c.change.To.Name
		if name == "" {
			name = c.change.From.Name
		}
		return nil, accessError("patch", name, err)
	}
	return &gitPatch{patch: patch}, nil
}

// gitPatch wraps go-git Patch.
type gitPatch struct {
	patch *object.Patch
}

func (p *gitPatch) FilePatches() []FilePatch {
	filePatches := p.patch.FilePatches()
	result := make([]FilePatch, len(filePatches))
	for i, fp := range filePatches {
		result[i] = &gitFilePatch{filePatch: fp}
	}
	return result
}

// gitFilePatch wraps go-git FilePatch.
type gitFilePatch struct {
	filePatch diff.FilePatch
}

func (fp *gitFilePatch) IsBinary() bool {
	return fp.filePatch.IsBinary()
}

func (fp *gitFilePatch) Chunks() []Chunk {
	chunks := fp.filePatch.Chunks()
	result := make([]Chunk, len(chunks))
	for i, c := range chunks {
		result[i] = &gitChunk{chunk: c}
	}
	return result
}

// gitChunk wraps go-git Chunk.
type gitChunk struct {
	chunk diff.Chunk
}

func (c *gitChunk) Type() ChunkType {
	switch c.chunk.Type() {
	case diff.Add:
		return ChunkAdd
	case diff.Delete:
		return ChunkDelete
	default:
		return ChunkEqual
	}
}

func (c *gitChunk) Content() string {
	return c.chunk.Content()
}

// Default opener singleton
var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the default git opener.
func DefaultOpener() Opener {
	return defaultOpener
}

// SetDefaultOpener sets the default git opener (useful for testing).
func SetDefaultOpener(opener Opener) {
	defaultOpener = opener
}
