package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/panbanda/defectmine/internal/testutil"
	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/panbanda/defectmine/pkg/loc"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/release"
	"github.com/panbanda/defectmine/pkg/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeReleases tags v1(day 0), v2(day 10), v3(day 20) and v4(day 30); v4 is
// the latest tag so it only bounds the v3 window. Between v1 and v2 A.java
// loses 2 lines and gains 10, then loses 1 and gains 3.
func threeReleases(t *testing.T) (vcs.Repository, *release.Index) {
	t.Helper()
	repo := testutil.NewGitRepo(t)

	v1 := repo.Commit("init", "alice", testutil.Day(0), map[string]string{
		"A.java":     testutil.Lines("a", 10),
		"Old.java":   "x\n",
		"ATest.java": "t\n",
	})
	repo.Tag("v1", v1)

	base := testutil.Lines("a", 10)[len("a0\na1\n"):]
	first := base + testutil.Lines("b", 10)
	repo.Commit("grow A", "alice", testutil.Day(3), map[string]string{"A.java": first, "Old.java": "x\ny\n"})
	repo.Delete("drop Old", "alice", testutil.Day(4), "Old.java")

	second := first[len("a2\n"):] + testutil.Lines("c", 3)
	v2 := repo.Commit("grow A again", "bob", testutil.Day(10), map[string]string{"A.java": second})
	repo.Tag("v2", v2)

	v3 := repo.Commit("touch A", "alice", testutil.Day(20), map[string]string{"A.java": second + "d\n"})
	repo.Tag("v3", v3)

	v4 := repo.Commit("notes", "carol", testutil.Day(30), map[string]string{"NOTES.txt": "n\n"})
	repo.Tag("v4", v4)

	vrepo := vcs.Wrap(repo.Repo, repo.Path)
	idx, err := release.Build(vrepo)
	require.NoError(t, err)
	return vrepo, idx
}

func aggregate(t *testing.T, repo vcs.Repository, idx *release.Index, ordinal int) (*window.Window, Columns) {
	t.Helper()
	w, err := window.Extract(context.Background(), repo, idx, ordinal, models.DefaultClassFilter())
	require.NoError(t, err)
	cols, err := AggregateWindow(context.Background(), w, DefaultSuite(loc.Physical{}))
	require.NoError(t, err)
	return w, cols
}

func TestAggregateWindow_TwoCommits(t *testing.T) {
	repo, idx := threeReleases(t)
	w, cols := aggregate(t, repo, idx, 1)

	assert.Equal(t, []string{"A.java"}, w.Classes)

	const a = "A.java"
	assert.Equal(t, 20, cols[Size][a])
	assert.Equal(t, 2, cols[NR][a])
	assert.Equal(t, 2, cols[NAuth][a])
	assert.Equal(t, 16, cols[LOCTouched][a])
	assert.Equal(t, 13, cols[LOCAdded][a])
	assert.Equal(t, 10, cols[MaxLOCAdded][a])
	assert.Equal(t, 6, cols[AvgLOCAdded][a])
	assert.Equal(t, 10, cols[Churn][a])
	assert.Equal(t, 8, cols[MaxChurn][a])

	// Old.java was touched but is gone at v2: metrics exist, size does not.
	assert.Equal(t, 1, cols[NR]["Old.java"])
	_, ok := cols[Size]["Old.java"]
	assert.False(t, ok)
	_, ok = cols[NR]["ATest.java"]
	assert.False(t, ok)
}

func TestAggregateWindow_StateResetsPerWindow(t *testing.T) {
	repo, idx := threeReleases(t)
	require.Equal(t, 3, idx.Len())
	require.Equal(t, 2, idx.Windows())
	_, cols := aggregate(t, repo, idx, 2)

	const a = "A.java"
	assert.Equal(t, 1, cols[NR][a])
	assert.Equal(t, 1, cols[NAuth][a])
	assert.Equal(t, 1, cols[LOCAdded][a])
	assert.Equal(t, 21, cols[Size][a])
}

func TestAggregateWindow_Cancelled(t *testing.T) {
	repo, idx := threeReleases(t)
	w, err := window.Extract(context.Background(), repo, idx, 1, models.DefaultClassFilter())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AggregateWindow(ctx, w, DefaultSuite(loc.Physical{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAccumulators(t *testing.T) {
	commits := []Contribution{
		{Path: "X.java", Author: "a", Edits: []window.Edit{{LengthB: 4}, {LengthA: 1, LengthB: 1}}},
		{Path: "X.java", Author: "a", Edits: []window.Edit{{LengthA: 6}}},
		{Path: "X.java", Author: "b", Edits: []window.Edit{{LengthB: 1}, {LengthA: 2}}},
	}
	got := map[Kind]int{}
	for _, f := range DefaultFactories(loc.Physical{})[1:] {
		agg := f()
		for _, c := range commits {
			agg.Observe(c)
		}
		values, err := agg.Finish(context.Background(), nil)
		require.NoError(t, err)
		got[agg.Kind()] = values["X.java"]
	}

	assert.Equal(t, 4+2+6+1+2, got[LOCTouched])
	assert.Equal(t, 3, got[NR])
	assert.Equal(t, 2, got[NAuth])
	assert.Equal(t, 5, got[LOCAdded])
	assert.Equal(t, 4, got[MaxLOCAdded])
	assert.Equal(t, 1, got[AvgLOCAdded])
	// replace edits count toward neither side of churn
	assert.Equal(t, 4-6+(1-2), got[Churn])
	assert.Equal(t, 4, got[MaxChurn])
}

func TestMaxChurn_AllNegative(t *testing.T) {
	agg := newMax(MaxChurn, churn)()
	agg.Observe(Contribution{Path: "X.java", Edits: []window.Edit{{LengthA: 5}}})
	agg.Observe(Contribution{Path: "X.java", Edits: []window.Edit{{LengthA: 2}}})
	values, err := agg.Finish(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, -2, values["X.java"])
}

func TestNewSuite(t *testing.T) {
	all := DefaultFactories(loc.Physical{})

	_, err := NewSuite(all...)
	require.NoError(t, err)

	_, err = NewSuite(all[1:]...)
	assert.True(t, errors.Is(err, ErrIncompleteSuite))
	assert.Contains(t, err.Error(), "missing size")

	_, err = NewSuite(append(all, all[2])...)
	assert.ErrorIs(t, err, ErrIncompleteSuite)
	assert.Contains(t, err.Error(), "duplicate NR")
}

func TestKind(t *testing.T) {
	require.Len(t, AllKinds, int(numKinds))
	for i, k := range AllKinds {
		assert.Equal(t, models.Header[i+2], k.String())
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("bogus")
	assert.Error(t, err)
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestTable(t *testing.T) {
	table := NewTable()
	table.Add(1, Columns{
		Size: {"B.java": 3, "A.java": 5},
		NR:   {"A.java": 2, "Gone.java": 1},
	}, []string{"A.java", "B.java"})
	table.Add(2, Columns{
		Size: {"A.java": 6},
	}, []string{"A.java"})

	assert.Equal(t, []models.CompositeKey{
		models.Key(1, "A.java"),
		models.Key(1, "B.java"),
		models.Key(2, "A.java"),
	}, table.Keys())
	assert.Equal(t, 3, table.Len())

	v, ok := table.Value(models.Key(1, "A.java"), NR)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = table.Value(models.Key(1, "B.java"), NR)
	assert.False(t, ok)

	_, ok = table.Value(models.Key(3, "A.java"), Size)
	assert.False(t, ok)
}
