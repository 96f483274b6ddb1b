package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/defectmine/internal/cache"
	"github.com/panbanda/defectmine/internal/remote"
	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/panbanda/defectmine/pkg/config"
	"github.com/panbanda/defectmine/pkg/loc"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/tracker"
	"github.com/sirupsen/logrus"
)

// OpenRepository opens path as a local repository, or clones it into a
// temporary directory when it names a remote. The returned cleanup removes
// any clone and is never nil.
func OpenRepository(ctx context.Context, path string, logger logrus.FieldLogger) (vcs.Repository, func(), error) {
	noop := func() {}
	src, err := remote.Parse(path)
	if err != nil {
		return nil, noop, err
	}
	if src == nil {
		repo, err := vcs.DefaultOpener().PlainOpenWithDetect(path)
		return repo, noop, err
	}

	dir, err := os.MkdirTemp("", "defectmine-clone-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create clone dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }
	if logger != nil {
		logger.WithField("url", src.URL).Info("cloning repository")
	}
	clonePath := filepath.Join(dir, "repo")
	repo, err := src.Clone(ctx, clonePath)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return vcs.Wrap(repo, clonePath), cleanup, nil
}

// NewSource builds the tracker collaborator described by cfg, wrapped in
// the ticket snapshot cache when caching is enabled.
func NewSource(cfg *config.Config, logger logrus.FieldLogger) (tracker.Source, error) {
	tc := cfg.Tracker
	var src tracker.Source
	switch tracker.Kind(tc.Kind) {
	case tracker.KindJira:
		src = tracker.NewJira(tracker.JiraOptions{
			BaseURL:   tc.BaseURL,
			PageSize:  tc.PageSize,
			RateLimit: tc.RateLimit,
			Timeout:   tc.Timeout(),
			Logger:    logger,
		})
	case tracker.KindGitHub:
		token := tc.GitHubToken
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		gh, err := tracker.NewGitHub(tracker.GitHubOptions{
			Token:              token,
			BaseURL:            tc.BaseURL,
			BugLabel:           tc.BugLabel,
			VersionLabelPrefix: tc.AffectedLabelPrefix,
			RateLimit:          tc.RateLimit,
			Logger:             logger,
		})
		if err != nil {
			return nil, err
		}
		src = gh
	case tracker.KindFile:
		// snapshots of a local file would only go stale
		return tracker.NewFile(tc.TicketsFile), nil
	default:
		return nil, fmt.Errorf("unknown tracker kind %q", tc.Kind)
	}

	if !cfg.Cache.Enabled {
		return src, nil
	}
	c, err := cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTL)*time.Hour, true)
	if err != nil {
		return nil, err
	}
	return tracker.NewCached(src, c, tc.Kind, logger), nil
}

// NewOptions fills run options from cfg for one project.
func NewOptions(cfg *config.Config, project config.ProjectConfig) (Options, error) {
	counter, err := loc.New(loc.Kind(cfg.Size.Counter))
	if err != nil {
		return Options{}, err
	}
	return Options{
		Name:          project.Name,
		Project:       project.Key,
		Filter:        models.NewClassFilter(cfg.Classes.Extension, cfg.Classes.Exclude),
		VersionPrefix: cfg.Releases.VersionPrefix,
		Counter:       counter,
		OutputDir:     cfg.Output.Dir,
	}, nil
}
