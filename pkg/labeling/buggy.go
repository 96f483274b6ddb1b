package labeling

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/defectmine/pkg/models"
)

// BuggySet is the set of (release, class) pairs labeled defective. Paths are
// interned once and each release keeps a bitmap of path ids.
type BuggySet struct {
	ids      map[string]uint32
	paths    []string
	releases map[int]*roaring.Bitmap
}

// NewBuggySet creates an empty set.
func NewBuggySet() *BuggySet {
	return &BuggySet{
		ids:      make(map[string]uint32),
		releases: make(map[int]*roaring.Bitmap),
	}
}

// Add marks (release, path) as buggy. Adding a pair twice is a no-op.
func (s *BuggySet) Add(release int, path string) {
	id, ok := s.ids[path]
	if !ok {
		id = uint32(len(s.paths))
		s.ids[path] = id
		s.paths = append(s.paths, path)
	}
	bm, ok := s.releases[release]
	if !ok {
		bm = roaring.New()
		s.releases[release] = bm
	}
	bm.Add(id)
}

// Contains reports whether key is buggy.
func (s *BuggySet) Contains(key models.CompositeKey) bool {
	id, ok := s.ids[key.Path]
	if !ok {
		return false
	}
	bm, ok := s.releases[key.Release]
	return ok && bm.Contains(id)
}

// Len returns the number of buggy pairs.
func (s *BuggySet) Len() int {
	n := uint64(0)
	for _, bm := range s.releases {
		n += bm.GetCardinality()
	}
	return int(n)
}

// InRelease returns the number of buggy classes in release.
func (s *BuggySet) InRelease(release int) int {
	bm, ok := s.releases[release]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Keys lists every buggy pair ordered by release, then path.
func (s *BuggySet) Keys() []models.CompositeKey {
	releases := make([]int, 0, len(s.releases))
	for r := range s.releases {
		releases = append(releases, r)
	}
	sort.Ints(releases)

	var keys []models.CompositeKey
	for _, r := range releases {
		start := len(keys)
		for _, id := range s.releases[r].ToArray() {
			keys = append(keys, models.Key(r, s.paths[id]))
		}
		sort.Slice(keys[start:], func(i, j int) bool {
			return keys[start+i].Path < keys[start+j].Path
		})
	}
	return keys
}
