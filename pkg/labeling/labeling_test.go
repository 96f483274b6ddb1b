package labeling

import (
	"context"
	"testing"

	"github.com/panbanda/defectmine/internal/testutil"
	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/proportion"
	"github.com/panbanda/defectmine/pkg/release"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToucher map[string][]string

func (f fakeToucher) Touched(_ context.Context, id string) ([]string, error) {
	return f[id], nil
}

// fiveReleases returns release-1.0 .. release-5.0 cut every ten days. The
// trailing tag only closes the last window and is not a release.
func fiveReleases() *release.Index {
	var tags []vcs.Tag
	for i, name := range []string{"1.0", "2.0", "3.0", "4.0", "5.0", "6.0"} {
		tags = append(tags, vcs.Tag{Name: "release-" + name, When: testutil.Day(i * 10)})
	}
	return release.FromTags(tags)
}

func TestBuggySet(t *testing.T) {
	s := NewBuggySet()
	s.Add(2, "B.java")
	s.Add(1, "Z.java")
	s.Add(1, "A.java")
	s.Add(2, "B.java")

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.InRelease(1))
	assert.Equal(t, 0, s.InRelease(9))
	assert.True(t, s.Contains(models.Key(2, "B.java")))
	assert.False(t, s.Contains(models.Key(1, "B.java")))
	assert.False(t, s.Contains(models.Key(1, "Nope.java")))
	assert.Equal(t, []models.CompositeKey{
		models.Key(1, "A.java"),
		models.Key(1, "Z.java"),
		models.Key(2, "B.java"),
	}, s.Keys())
}

func TestLabeler_ProportionRange(t *testing.T) {
	idx := fiveReleases()
	trained := proportion.New(idx).Train(nil)
	l := NewLabeler(idx, fakeToucher{"BUG-1": {"B.java"}}, trained, nil)

	// OV 2, FV 4, P 1 -> predicted IV 2
	ticket := models.Ticket{ID: "BUG-1", CreatedAt: testutil.Day(5), ResolvedAt: testutil.Day(25)}
	assert.Equal(t, []int{2, 3}, l.Releases(ticket))

	set, err := l.Label(context.Background(), []models.Ticket{ticket})
	require.NoError(t, err)
	assert.True(t, set.Contains(models.Key(2, "B.java")))
	assert.True(t, set.Contains(models.Key(3, "B.java")))
	assert.False(t, set.Contains(models.Key(4, "B.java")))
	assert.False(t, set.Contains(models.Key(1, "B.java")))
	assert.Equal(t, 2, set.Len())
}

func TestLabeler_ReportedVersions(t *testing.T) {
	idx := fiveReleases()
	trained := proportion.New(idx).Train(nil)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	l := NewLabeler(idx, fakeToucher{
		"BUG-2": {"A.java", "C.java"},
		"BUG-3": {"A.java"},
	}, trained, logger)

	set, err := l.Label(context.Background(), []models.Ticket{
		{ID: "BUG-2", CreatedAt: testutil.Day(5), ResolvedAt: testutil.Day(45), AffectedVersions: []string{"2.0", "release-3.0", "9.9"}},
		{ID: "BUG-3", CreatedAt: testutil.Day(5), ResolvedAt: testutil.Day(45), AffectedVersions: []string{"2.0"}},
		{ID: "BUG-4", CreatedAt: testutil.Day(5), ResolvedAt: testutil.Day(45)},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.CompositeKey{
		models.Key(2, "A.java"),
		models.Key(2, "C.java"),
		models.Key(3, "A.java"),
		models.Key(3, "C.java"),
	}, set.Keys())

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "no commits reference ticket", hook.LastEntry().Message)
	assert.Equal(t, "BUG-4", hook.LastEntry().Data["ticket"])
}

func TestLabeler_Cancelled(t *testing.T) {
	idx := fiveReleases()
	l := NewLabeler(idx, fakeToucher{}, proportion.New(idx).Train(nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Label(ctx, []models.Ticket{{ID: "X"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "PROJ-1 fix", Summary("PROJ-1 fix\n\nlong body PROJ-2"))
	assert.Equal(t, "wrapped subject line", Summary("wrapped subject\nline\n"))
	assert.Equal(t, "", Summary(""))
}

func TestTouchIndex(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	repo.Commit("PROJ-1 initial import", "alice", testutil.Day(0), map[string]string{
		"A.java": "a\n", "B.java": "b\n", "C.java": "c\n",
	})
	repo.Commit("PROJ-12 fix A", "alice", testutil.Day(1), map[string]string{"A.java": "a\na\n"})
	repo.Commit("PROJ-123 fix B", "bob", testutil.Day(2), map[string]string{"B.java": "b\nb\n", "BTest.java": "t\n"})
	repo.Commit("cleanup\n\nalso PROJ-7", "bob", testutil.Day(3), map[string]string{"C.java": "c\nc\n"})
	repo.Delete("PROJ-9 drop C", "bob", testutil.Day(4), "C.java")

	idx, err := NewTouchIndex(context.Background(), vcs.Wrap(repo.Repo, repo.Path), models.DefaultClassFilter())
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len(), "root commit is not indexed")

	ctx := context.Background()
	touched, err := idx.Touched(ctx, "PROJ-12")
	require.NoError(t, err)
	// substring match: PROJ-123 also references PROJ-12
	assert.ElementsMatch(t, []string{"A.java", "B.java"}, touched)

	touched, err = idx.Touched(ctx, "PROJ-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A.java", "B.java"}, touched, "root commits are skipped")

	touched, err = idx.Touched(ctx, "PROJ-7")
	require.NoError(t, err)
	assert.Empty(t, touched, "only the summary is searched")

	touched, err = idx.Touched(ctx, "PROJ-9")
	require.NoError(t, err)
	assert.Empty(t, touched, "deleted files have no new-side path")

	touched, err = idx.Touched(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, touched)
}
