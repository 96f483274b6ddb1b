// Package release orders repository tags chronologically and answers
// date and name lookups over the resulting ordinal space.
package release

import (
	"sort"
	"strings"
	"time"

	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/panbanda/defectmine/pkg/models"
)

// DefaultVersionPrefix is prepended to tracker version names when matching tags.
const DefaultVersionPrefix = "release-"

// Index is the immutable, chronologically ordered release list of one repository.
type Index struct {
	releases []models.Release
	prefix   string
}

// Option configures an Index.
type Option func(*Index)

// WithVersionPrefix sets the tag prefix used by Resolve.
func WithVersionPrefix(prefix string) Option {
	return func(i *Index) {
		i.prefix = prefix
	}
}

// Build reads every tag of repo and orders it by the author timestamp of its
// target commit. Ties keep the order returned by the repository. The
// chronologically last tag is not a release.
func Build(repo vcs.Repository, opts ...Option) (*Index, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, err
	}
	return FromTags(tags, opts...), nil
}

// FromTags orders already resolved tags and drops the latest one, so
// ordinals stay dense over the remaining releases.
func FromTags(tags []vcs.Tag, opts ...Option) *Index {
	sorted := make([]vcs.Tag, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].When.Before(sorted[j].When)
	})
	if len(sorted) > 0 {
		sorted = sorted[:len(sorted)-1]
	}

	idx := &Index{
		releases: make([]models.Release, len(sorted)),
		prefix:   DefaultVersionPrefix,
	}
	for _, opt := range opts {
		opt(idx)
	}
	for i, tag := range sorted {
		idx.releases[i] = models.Release{
			Ordinal:   i + 1,
			Name:      tag.Name,
			Timestamp: tag.When,
			Commit:    tag.Commit,
		}
	}
	return idx
}

// Len returns the number of releases.
func (i *Index) Len() int {
	return len(i.releases)
}

// Releases returns a copy of the ordered releases.
func (i *Index) Releases() []models.Release {
	out := make([]models.Release, len(i.releases))
	copy(out, i.releases)
	return out
}

// ByOrdinal returns the release with the given ordinal.
func (i *Index) ByOrdinal(ordinal int) (models.Release, bool) {
	if ordinal < 1 || ordinal > len(i.releases) {
		return models.Release{}, false
	}
	return i.releases[ordinal-1], true
}

// Windows returns the number of release windows. Window i spans releases i
// and i+1, so the last release only closes the final window and owns none.
func (i *Index) Windows() int {
	if len(i.releases) < 2 {
		return 0
	}
	return len(i.releases) - 1
}

// NextAfter returns the ordinal of the first release cut strictly after t.
// When every release precedes t the earliest ordinal is returned.
func (i *Index) NextAfter(t time.Time) int {
	if len(i.releases) == 0 {
		return 0
	}
	for _, r := range i.releases {
		if r.After(t) {
			return r.Ordinal
		}
	}
	return i.releases[0].Ordinal
}

// Resolve maps a tracker version name to the release whose tag equals the
// name, with or without the configured prefix.
func (i *Index) Resolve(version string) (int, bool) {
	for _, r := range i.releases {
		if r.Name == version || r.Name == i.prefix+version {
			return r.Ordinal, true
		}
	}
	return 0, false
}

// EarliestContaining returns the smallest ordinal whose tag name contains any
// of the given version names.
func (i *Index) EarliestContaining(versions []string) (int, bool) {
	for _, r := range i.releases {
		for _, v := range versions {
			if v != "" && strings.Contains(r.Name, v) {
				return r.Ordinal, true
			}
		}
	}
	return 0, false
}
