package release

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/defectmine/internal/testutil"
	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(name string, day int) vcs.Tag {
	return vcs.Tag{Name: name, When: testutil.Day(day), Commit: plumbing.NewHash(name)}
}

func TestFromTags_OrdersChronologically(t *testing.T) {
	idx := FromTags([]vcs.Tag{
		tag("v3", 20),
		tag("v1", 0),
		tag("v2", 10),
		tag("v4", 30),
	})

	require.Equal(t, 3, idx.Len())
	for i, r := range idx.Releases() {
		assert.Equal(t, i+1, r.Ordinal)
	}
	names := []string{}
	for _, r := range idx.Releases() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"v1", "v2", "v3"}, names)
	assert.Equal(t, 2, idx.Windows())
}

func TestFromTags_TiesKeepInputOrder(t *testing.T) {
	idx := FromTags([]vcs.Tag{
		tag("b", 5),
		tag("a", 5),
		tag("c", 1),
		tag("last", 9),
	})

	r1, _ := idx.ByOrdinal(1)
	r2, _ := idx.ByOrdinal(2)
	r3, _ := idx.ByOrdinal(3)
	assert.Equal(t, "c", r1.Name)
	assert.Equal(t, "b", r2.Name)
	assert.Equal(t, "a", r3.Name)
}

func TestFromTags_DropsLatestTag(t *testing.T) {
	idx := FromTags([]vcs.Tag{
		tag("v3", 20),
		tag("v1", 0),
		tag("v2", 10),
	})

	require.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, idx.Windows())
	_, ok := idx.Resolve("v3")
	assert.False(t, ok)
	_, ok = idx.ByOrdinal(3)
	assert.False(t, ok)

	// A date past the last release falls back to the earliest, even when
	// the dropped tag would have been next.
	assert.Equal(t, 1, idx.NextAfter(testutil.Day(15)))
}

func TestIndex_SingleAndEmpty(t *testing.T) {
	pair := FromTags([]vcs.Tag{tag("v1", 0), tag("v2", 10)})
	assert.Equal(t, 1, pair.Len())
	assert.Equal(t, 0, pair.Windows())

	single := FromTags([]vcs.Tag{tag("v1", 0)})
	assert.Equal(t, 0, single.Len())
	assert.Equal(t, 0, single.Windows())

	empty := FromTags(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Windows())
	assert.Equal(t, 0, empty.NextAfter(testutil.Day(0)))

	_, ok := empty.ByOrdinal(1)
	assert.False(t, ok)
}

func TestIndex_NextAfter(t *testing.T) {
	idx := FromTags([]vcs.Tag{tag("v1", 0), tag("v2", 10), tag("v3", 20), tag("v4", 30)})

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"before first", testutil.Day(-5), 1},
		{"on first is not after", testutil.Day(0), 2},
		{"between", testutil.Day(15), 3},
		{"after all falls back to earliest", testutil.Day(30), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.NextAfter(tt.at))
		})
	}
}

func TestIndex_Resolve(t *testing.T) {
	idx := FromTags([]vcs.Tag{
		tag("release-4.0.0", 0),
		tag("release-4.1.0", 10),
		tag("4.2.0", 20),
		tag("4.3.0", 30),
	})

	ord, ok := idx.Resolve("4.1.0")
	require.True(t, ok)
	assert.Equal(t, 2, ord)

	ord, ok = idx.Resolve("4.2.0")
	require.True(t, ok)
	assert.Equal(t, 3, ord)

	_, ok = idx.Resolve("4.1")
	assert.False(t, ok)

	custom := FromTags([]vcs.Tag{tag("v1.0", 0), tag("v2.0", 10)}, WithVersionPrefix("v"))
	ord, ok = custom.Resolve("1.0")
	require.True(t, ok)
	assert.Equal(t, 1, ord)
}

func TestIndex_EarliestContaining(t *testing.T) {
	idx := FromTags([]vcs.Tag{
		tag("release-4.0.0", 0),
		tag("release-4.1.0", 10),
		tag("release-4.2.0", 20),
		tag("release-4.3.0", 30),
	})

	ord, ok := idx.EarliestContaining([]string{"4.2.0", "4.1.0"})
	require.True(t, ok)
	assert.Equal(t, 2, ord)

	_, ok = idx.EarliestContaining([]string{"9.9"})
	assert.False(t, ok)

	_, ok = idx.EarliestContaining([]string{""})
	assert.False(t, ok)
}

func TestBuild_FromRepository(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	c1 := repo.Commit("first", "alice", testutil.Day(0), map[string]string{"A.java": "a\n"})
	c2 := repo.Commit("second", "alice", testutil.Day(10), map[string]string{"A.java": "a\nb\n"})
	c3 := repo.Commit("third", "bob", testutil.Day(20), map[string]string{"A.java": "a\nb\nc\n"})
	c4 := repo.Commit("fourth", "bob", testutil.Day(30), map[string]string{"A.java": "a\n"})

	// Names sort opposite to time so ordering must come from the commits.
	repo.Tag("z-first", c1)
	repo.AnnotatedTag("m-second", c2, testutil.Day(99))
	repo.Tag("a-third", c3)
	repo.Tag("0-latest", c4)

	idx, err := Build(vcs.Wrap(repo.Repo, repo.Path))
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Windows())

	r1, _ := idx.ByOrdinal(1)
	r2, _ := idx.ByOrdinal(2)
	r3, _ := idx.ByOrdinal(3)
	assert.Equal(t, "z-first", r1.Name)
	assert.Equal(t, "m-second", r2.Name)
	assert.Equal(t, c2, r2.Commit)
	assert.Equal(t, "a-third", r3.Name)
	assert.True(t, r1.Timestamp.Equal(testutil.Day(0)))
}

func TestBuild_TagOnTreeIsAccessError(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	c1 := repo.Commit("first", "alice", testutil.Day(0), map[string]string{"A.java": "a\n"})
	repo.Tag("v1", c1)

	commit, err := repo.Repo.CommitObject(c1)
	require.NoError(t, err)
	repo.Tag("tree-tag", commit.TreeHash)

	_, err = Build(vcs.Wrap(repo.Repo, repo.Path))
	require.Error(t, err)
	assert.True(t, vcs.IsAccessError(err))
	assert.Contains(t, err.Error(), "peel tag tree-tag")
}
