// Package pipeline runs one repository and tracker project through every
// phase: release indexing, per-window metrics, proportion training,
// labeling and the dataset merge.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/defectmine/internal/progress"
	"github.com/panbanda/defectmine/internal/vcs"
	"github.com/panbanda/defectmine/pkg/dataset"
	"github.com/panbanda/defectmine/pkg/labeling"
	"github.com/panbanda/defectmine/pkg/loc"
	"github.com/panbanda/defectmine/pkg/metrics"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/panbanda/defectmine/pkg/proportion"
	"github.com/panbanda/defectmine/pkg/release"
	"github.com/panbanda/defectmine/pkg/tracker"
	"github.com/panbanda/defectmine/pkg/window"
	"github.com/sirupsen/logrus"
)

// DatasetSuffix is appended to the run name to form the CSV file name.
const DatasetSuffix = "_dataset.csv"

// Options configures a run.
type Options struct {
	// Name labels the output file. Defaults to Project.
	Name    string
	Project string
	Repo    vcs.Repository
	Tracker tracker.Source

	Filter        models.ClassFilter
	VersionPrefix string
	Counter       loc.Counter

	// OutputDir receives <Name>_dataset.csv. Empty skips writing.
	OutputDir string

	Logger   logrus.FieldLogger
	Progress progress.Options
}

// Result describes a finished run.
type Result struct {
	Name        string              `json:"name" yaml:"name"`
	Project     string              `json:"project" yaml:"project"`
	Releases    []models.Release    `json:"releases" yaml:"releases"`
	Tickets     int                 `json:"tickets" yaml:"tickets"`
	Proportion  []proportion.Entry  `json:"proportion" yaml:"proportion"`
	Rows        []models.FeatureRow `json:"-" yaml:"-"`
	Buggy       int                 `json:"buggy" yaml:"buggy"`
	Path        string              `json:"path,omitempty" yaml:"path,omitempty"`
	Fingerprint uint64              `json:"fingerprint" yaml:"fingerprint"`
	Summary     dataset.Summary     `json:"summary" yaml:"summary"`
	Elapsed     time.Duration       `json:"elapsed" yaml:"elapsed"`
}

func (o *Options) validate() error {
	if o.Repo == nil {
		return errors.New("pipeline: repository is required")
	}
	if o.Tracker == nil {
		return errors.New("pipeline: tracker is required")
	}
	if o.Project == "" {
		return errors.New("pipeline: project is required")
	}
	if o.Name == "" {
		o.Name = o.Project
	}
	if o.Filter.Extension == "" {
		o.Filter = models.DefaultClassFilter()
	}
	if o.VersionPrefix == "" {
		o.VersionPrefix = release.DefaultVersionPrefix
	}
	if o.Counter == nil {
		o.Counter = loc.Physical{}
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return nil
}

// Run mines one repository. Any repository or tracker failure aborts the
// run; no partial dataset is written.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	log := opts.Logger.WithField("project", opts.Project)

	idx, err := release.Build(opts.Repo, release.WithVersionPrefix(opts.VersionPrefix))
	if err != nil {
		return nil, fmt.Errorf("build release index: %w", err)
	}
	log.WithFields(logrus.Fields{"releases": idx.Len(), "windows": idx.Windows()}).Info("release index built")
	for _, r := range idx.Releases() {
		log.WithFields(logrus.Fields{"release": r.Ordinal, "tag": r.Name, "date": r.Timestamp.Format(time.DateOnly)}).Debug("release")
	}

	table, err := Measure(ctx, opts.Repo, idx, opts.Filter, opts.Counter, log, opts.Progress)
	if err != nil {
		return nil, err
	}

	tickets, err := opts.Tracker.Tickets(ctx, opts.Project)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets: %w", err)
	}
	log.WithField("tickets", len(tickets)).Info("tickets fetched")

	trained := proportion.New(idx).Train(tickets)
	for _, e := range trained.Entries() {
		log.WithFields(logrus.Fields{"release": e.Release.Ordinal, "p": e.P, "samples": e.Samples}).Debug("proportion")
	}

	touches, err := labeling.NewTouchIndex(ctx, opts.Repo, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("index commits: %w", err)
	}
	buggy, err := labeling.NewLabeler(idx, touches, trained, log).Label(ctx, tickets)
	if err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	log.WithField("buggy", buggy.Len()).Info("labels assigned")

	rows := dataset.Merge(table, buggy)
	res := &Result{
		Name:        opts.Name,
		Project:     opts.Project,
		Releases:    idx.Releases(),
		Tickets:     len(tickets),
		Proportion:  trained.Entries(),
		Rows:        rows,
		Fingerprint: dataset.Fingerprint(rows),
		Summary:     dataset.Summarize(rows),
	}
	for _, r := range rows {
		if r.Buggy {
			res.Buggy++
		}
	}

	if opts.OutputDir != "" {
		path, err := write(opts.OutputDir, opts.Name, rows)
		if err != nil {
			return nil, err
		}
		res.Path = path
		log.WithFields(logrus.Fields{"rows": len(rows), "path": path}).Info("dataset written")
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// Measure aggregates every release window into a Feature Table, in
// chronological order.
func Measure(ctx context.Context, repo vcs.Repository, idx *release.Index, filter models.ClassFilter, counter loc.Counter, log logrus.FieldLogger, popts progress.Options) (*metrics.Table, error) {
	suite, err := metrics.NewSuite(metrics.DefaultFactories(counter)...)
	if err != nil {
		return nil, err
	}
	table := metrics.NewTable()
	bar := progress.NewTracker("windows", idx.Windows(), popts)
	for ordinal := 1; ordinal <= idx.Windows(); ordinal++ {
		w, err := window.Extract(ctx, repo, idx, ordinal, filter)
		if err != nil {
			bar.FinishError(err)
			return nil, fmt.Errorf("window %d: %w", ordinal, err)
		}
		bar.Step(w.Start.Name)
		cols, err := metrics.AggregateWindow(ctx, w, suite)
		if err != nil {
			bar.FinishError(err)
			return nil, fmt.Errorf("window %d: %w", ordinal, err)
		}
		table.Add(ordinal, cols, w.Classes)
		log.WithFields(logrus.Fields{
			"release": ordinal,
			"commits": len(w.Commits),
			"classes": len(w.Classes),
		}).Debug("window aggregated")
		bar.Tick()
	}
	bar.FinishSuccess()
	return table, nil
}

// write stores rows atomically as <dir>/<name>_dataset.csv.
func write(dir, name string, rows []models.FeatureRow) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name+DatasetSuffix)
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create dataset: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := dataset.WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write dataset: %w", err)
	}
	return path, nil
}
