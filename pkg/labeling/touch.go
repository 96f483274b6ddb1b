package labeling

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/window"
)

// Toucher finds the ClassUnits changed by the commits of a ticket.
type Toucher interface {
	Touched(ctx context.Context, ticketID string) ([]string, error)
}

type loggedCommit struct {
	commit  vcs.Commit
	summary string
}

// TouchIndex links ticket ids to commits through a substring match on the
// commit summary. Changed paths are computed once per commit.
type TouchIndex struct {
	commits []loggedCommit
	filter  models.ClassFilter
	paths   map[plumbing.Hash][]string
}

// NewTouchIndex reads every non-root commit reachable from HEAD.
func NewTouchIndex(ctx context.Context, repo vcs.Repository, filter models.ClassFilter) (*TouchIndex, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	iter, err := repo.Log(&vcs.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	idx := &TouchIndex{
		filter: filter,
		paths:  make(map[plumbing.Hash][]string),
	}
	err = iter.ForEach(func(c vcs.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.NumParents() == 0 {
			return nil
		}
		idx.commits = append(idx.commits, loggedCommit{commit: c, summary: Summary(c.Message())})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Len returns the number of indexed commits.
func (t *TouchIndex) Len() int {
	return len(t.commits)
}

// Touched returns the distinct classes changed by commits mentioning
// ticketID, in log order.
func (t *TouchIndex) Touched(ctx context.Context, ticketID string) ([]string, error) {
	if ticketID == "" {
		return nil, nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, lc := range t.commits {
		if !strings.Contains(lc.summary, ticketID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths, err := t.changed(lc.commit)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (t *TouchIndex) changed(c vcs.Commit) ([]string, error) {
	if paths, ok := t.paths[c.Hash()]; ok {
		return paths, nil
	}
	paths, err := window.ChangedPaths(c, t.filter)
	if err != nil {
		return nil, err
	}
	t.paths[c.Hash()] = paths
	return paths, nil
}

// Summary returns the first paragraph of a commit message on one line.
func Summary(message string) string {
	message = strings.TrimLeft(message, "\n")
	if end := strings.Index(message, "\n\n"); end >= 0 {
		message = message[:end]
	}
	return strings.TrimSpace(strings.ReplaceAll(message, "\n", " "))
}
