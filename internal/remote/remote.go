// Package remote clones repositories named by URL or GitHub shorthand so
// they can be mined like local checkouts.
package remote

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Source is a repository that must be cloned before mining.
type Source struct {
	URL string // normalized git URL
}

// Parse detects whether path names a remote repository. It returns nil when
// path exists on the filesystem, since local paths take precedence.
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "ssh://"), strings.HasPrefix(path, "git://"),
		strings.HasPrefix(path, "file://"):
		return &Source{URL: path}, nil
	case strings.HasPrefix(path, "git@"):
		return &Source{URL: path}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path}, nil
	}
	return nil, fmt.Errorf("repository %q is neither a local path nor a remote URL", path)
}

// isHostPath matches host/owner/repo, e.g. github.com/apache/bookkeeper.
func isHostPath(path string) bool {
	host, rest, ok := strings.Cut(path, "/")
	return ok && strings.Contains(host, ".") && strings.Contains(rest, "/")
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// A dot before the slash indicates a domain
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone fetches the full history and every tag of s into dir.
func (s *Source) Clone(ctx context.Context, dir string) (*git.Repository, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  s.URL,
		Tags: git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", s.URL, err)
	}
	return repo, nil
}
