package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/panbanda/defectmine/internal/output"
	"github.com/panbanda/defectmine/pkg/config"
	"github.com/panbanda/defectmine/pkg/pipeline"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v2"
)

func mineCmd() *cli.Command {
	return &cli.Command{
		Name:      "mine",
		Usage:     "Mine a labeled dataset for one repository or every configured project",
		ArgsUsage: "[repo key]",
		Description: `With a repository and tracker key, mines that pair. Without arguments,
mines every [[projects]] entry of the config, up to "parallel" at once.

Examples:
  defectmine mine ../bookkeeper BOOKKEEPER
  defectmine mine github.com/apache/zookeeper ZOOKEEPER --name zookeeper
  defectmine mine --tracker file --tickets-file bk.json ../bookkeeper BOOKKEEPER
  defectmine mine                     # every configured project`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Dataset name (defaults to the tracker key)"},
			&cli.StringFlag{Name: "out-dir", Usage: "Directory receiving <name>_dataset.csv"},
			&cli.StringFlag{Name: "tracker", Usage: "Tracker kind: jira, github, file"},
			&cli.StringFlag{Name: "tickets-file", Usage: "Saved Jira search response for --tracker file"},
			&cli.StringFlag{Name: "counter", Usage: "Size counter: physical, code"},
			&cli.StringFlag{Name: "extension", Usage: "Source file extension"},
			&cli.StringSliceFlag{Name: "exclude", Usage: "Path substrings excluded from mining (repeatable)"},
			&cli.StringFlag{Name: "version-prefix", Usage: "Prefix joining tracker versions to tag names"},
			&cli.BoolFlag{Name: "summary", Usage: "Report per-metric statistics of each dataset"},
		},
		Action: runMine,
	}
}

// applyMineFlags overrides config values with any mine flags that were set.
func applyMineFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("out-dir") {
		cfg.Output.Dir = c.String("out-dir")
	}
	if c.IsSet("tracker") {
		cfg.Tracker.Kind = c.String("tracker")
	}
	if c.IsSet("tickets-file") {
		cfg.Tracker.TicketsFile = c.String("tickets-file")
	}
	if c.IsSet("counter") {
		cfg.Size.Counter = c.String("counter")
	}
	if c.IsSet("extension") {
		cfg.Classes.Extension = c.String("extension")
	}
	if c.IsSet("exclude") {
		cfg.Classes.Exclude = c.StringSlice("exclude")
	}
	if c.IsSet("version-prefix") {
		cfg.Releases.VersionPrefix = c.String("version-prefix")
	}
}

// selectProjects returns the project named on the command line, or the
// configured projects when no arguments are given.
func selectProjects(c *cli.Context, cfg *config.Config) ([]config.ProjectConfig, error) {
	switch c.Args().Len() {
	case 0:
		if len(cfg.Projects) == 0 {
			return nil, fmt.Errorf("no repository given and no projects configured")
		}
		return cfg.Projects, nil
	case 2:
		key := c.Args().Get(1)
		name := c.String("name")
		if name == "" {
			name = key
		}
		return []config.ProjectConfig{{Name: name, Repo: c.Args().Get(0), Key: key}}, nil
	default:
		return nil, fmt.Errorf("expected <repo> <key>, got %d arguments", c.Args().Len())
	}
}

func runMine(c *cli.Context) error {
	e, err := setup(c, applyMineFlags)
	if err != nil {
		return err
	}
	defer e.Close()

	projects, err := selectProjects(c, e.cfg)
	if err != nil {
		return err
	}

	results, err := mineAll(c, e, projects)
	if err != nil {
		return err
	}

	report := &output.Report{Tables: []*output.Table{resultsTable(results)}}
	if c.Bool("summary") {
		for _, r := range results {
			report.Tables = append(report.Tables, summaryTable(r))
		}
	}
	report.Data = results
	return e.formatter.Output(report)
}

// mineAll runs projects with at most cfg.Parallel in flight, and never fewer
// than one. The first failure cancels the remaining runs.
func mineAll(c *cli.Context, e *env, projects []config.ProjectConfig) ([]*pipeline.Result, error) {
	p := pool.NewWithResults[*pipeline.Result]().
		WithContext(c.Context).
		WithMaxGoroutines(max(1, e.cfg.Parallel)).
		WithCancelOnError()

	hidden := len(projects) > 1
	for _, project := range projects {
		p.Go(func(ctx context.Context) (*pipeline.Result, error) {
			res, err := mineProject(ctx, c, e, project, hidden)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", project.Name, err)
			}
			return res, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func mineProject(ctx context.Context, c *cli.Context, e *env, project config.ProjectConfig, hidden bool) (*pipeline.Result, error) {
	log := e.logger.WithField("project", project.Key)

	repo, cleanup, err := pipeline.OpenRepository(ctx, project.Repo, log)
	defer cleanup()
	if err != nil {
		return nil, err
	}
	src, err := pipeline.NewSource(e.cfg, e.logger)
	if err != nil {
		return nil, err
	}
	opts, err := pipeline.NewOptions(e.cfg, project)
	if err != nil {
		return nil, err
	}
	opts.Repo = repo
	opts.Tracker = src
	opts.Logger = e.logger
	opts.Progress = e.progress(c, hidden)
	return pipeline.Run(ctx, opts)
}

func resultsTable(results []*pipeline.Result) *output.Table {
	headers := []string{"Project", "Releases", "Tickets", "Rows", "Buggy", "Buggy %", "Dataset", "Elapsed"}
	rows := make([][]string, 0, len(results))
	var totalRows, totalBuggy int
	for _, r := range results {
		totalRows += len(r.Rows)
		totalBuggy += r.Buggy
		path := r.Path
		if path == "" {
			path = "-"
		}
		rows = append(rows, []string{
			r.Name,
			strconv.Itoa(len(r.Releases)),
			humanize.Comma(int64(r.Tickets)),
			humanize.Comma(int64(len(r.Rows))),
			humanize.Comma(int64(r.Buggy)),
			fmt.Sprintf("%.1f", 100*r.Summary.BuggyRatio),
			path,
			r.Elapsed.Round(time.Millisecond).String(),
		})
	}
	var footer []string
	if len(results) > 1 {
		footer = []string{"Total", "", "", humanize.Comma(int64(totalRows)), humanize.Comma(int64(totalBuggy)), "", "", ""}
	}
	return output.NewTable("Datasets", headers, rows, footer, results)
}

func summaryTable(r *pipeline.Result) *output.Table {
	headers := []string{"Metric", "Mean", "StdDev", "Median", "Max"}
	rows := make([][]string, 0, len(r.Summary.Metrics))
	for _, m := range r.Summary.Metrics {
		rows = append(rows, []string{
			m.Name,
			fmt.Sprintf("%.2f", m.Mean),
			fmt.Sprintf("%.2f", m.StdDev),
			humanize.FtoaWithDigits(m.Median, 2),
			humanize.FtoaWithDigits(m.Max, 0),
		})
	}
	return output.NewTable(r.Name+" metrics", headers, rows, nil, r.Summary)
}
