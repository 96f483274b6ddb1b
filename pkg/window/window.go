// Package window extracts the commits and the file tree bounded by two
// adjacent releases, and the per-file edit lists of each commit.
package window

import (
	"context"
	"fmt"

	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/release"
)

// Window is the commit range (release i, release i+1] together with the
// ClassUnits present at the tip of release i+1.
type Window struct {
	// Ordinal is the release the window's rows belong to (i).
	Ordinal int
	Start   models.Release
	End     models.Release
	// Commits are newest first.
	Commits []vcs.Commit
	// Classes are the valid paths in the tip tree, in tree order.
	Classes []string
	Tree    vcs.Tree
	Filter  models.ClassFilter
}

// FileDiff is the edit list of one changed ClassUnit in one commit.
type FileDiff struct {
	Path  string
	Edits []Edit
}

// Extract builds the window owned by release ordinal, which must be in
// [1, idx.Windows()].
func Extract(ctx context.Context, repo vcs.Repository, idx *release.Index, ordinal int, filter models.ClassFilter) (*Window, error) {
	if ordinal < 1 || ordinal > idx.Windows() {
		return nil, fmt.Errorf("window %d out of range [1, %d]", ordinal, idx.Windows())
	}
	start, _ := idx.ByOrdinal(ordinal)
	end, _ := idx.ByOrdinal(ordinal + 1)

	commits, err := repo.Range(ctx, start.Commit, end.Commit)
	if err != nil {
		return nil, err
	}

	tip, err := repo.CommitObject(end.Commit)
	if err != nil {
		return nil, err
	}
	tree, err := tip.Tree()
	if err != nil {
		return nil, err
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, err
	}

	var classes []string
	for _, e := range entries {
		if !e.IsDir && filter.Valid(e.Path) {
			classes = append(classes, e.Path)
		}
	}

	return &Window{
		Ordinal: ordinal,
		Start:   start,
		End:     end,
		Commits: commits,
		Classes: classes,
		Tree:    tree,
		Filter:  filter,
	}, nil
}

// Diff returns the edit lists of the ClassUnits changed by c against its
// first parent. Root commits have no diff. A change is attributed to its
// new-side path, so deletions are never reported.
func Diff(c vcs.Commit, filter models.ClassFilter) ([]FileDiff, error) {
	changes, err := firstParentChanges(c)
	if err != nil {
		return nil, err
	}

	var diffs []FileDiff
	for _, ch := range changes {
		path := ch.ToName()
		if !filter.Valid(path) {
			continue
		}
		patch, err := ch.Patch()
		if err != nil {
			return nil, err
		}
		var edits []Edit
		for _, fp := range patch.FilePatches() {
			edits = append(edits, Edits(fp)...)
		}
		diffs = append(diffs, FileDiff{Path: path, Edits: edits})
	}
	return diffs, nil
}

// ChangedPaths returns the new-side paths of the ClassUnits changed by c
// against its first parent, without computing patches.
func ChangedPaths(c vcs.Commit, filter models.ClassFilter) ([]string, error) {
	changes, err := firstParentChanges(c)
	if err != nil || changes == nil {
		return nil, err
	}
	var paths []string
	for _, ch := range changes {
		if filter.Valid(ch.ToName()) {
			paths = append(paths, ch.ToName())
		}
	}
	return paths, nil
}

func firstParentChanges(c vcs.Commit) (vcs.Changes, error) {
	if c.NumParents() == 0 {
		return nil, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	from, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	to, err := c.Tree()
	if err != nil {
		return nil, err
	}
	return from.Diff(to)
}
