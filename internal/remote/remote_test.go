package remote

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/panbanda/defectmine/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_LocalPathWins(t *testing.T) {
	dir := t.TempDir()
	src, err := Parse(dir)
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
	}{
		{"shorthand", "apache/bookkeeper", "https://github.com/apache/bookkeeper"},
		{"host without scheme", "github.com/apache/zookeeper", "https://github.com/apache/zookeeper"},
		{"https URL", "https://gitbox.apache.org/repos/asf/bookkeeper.git", "https://gitbox.apache.org/repos/asf/bookkeeper.git"},
		{"SSH URL", "git@github.com:owner/repo.git", "git@github.com:owner/repo.git"},
		{"file URL", "file:///srv/git/repo.git", "file:///srv/git/repo.git"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			require.NoError(t, err)
			require.NotNil(t, src)
			assert.Equal(t, tt.wantURL, src.URL)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"does-not-exist", "/no/such/dir/anywhere", "a.b/c"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestSource_CloneKeepsTags(t *testing.T) {
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("local clones need git-upload-pack")
	}
	origin := testutil.NewGitRepo(t)
	c1 := origin.Commit("init", "alice", testutil.Day(0), map[string]string{"A.java": "a\n"})
	origin.Tag("release-1.0", c1)
	c2 := origin.Commit("next", "alice", testutil.Day(5), map[string]string{"A.java": "a\nb\n"})
	origin.AnnotatedTag("release-1.1", c2, testutil.Day(6))

	src := &Source{URL: origin.Path}
	repo, err := src.Clone(context.Background(), filepath.Join(t.TempDir(), "clone"))
	require.NoError(t, err)

	for _, name := range []string{"release-1.0", "release-1.1"} {
		_, err := repo.Tag(name)
		assert.NoError(t, err, name)
	}
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, c2, head.Hash())
}
