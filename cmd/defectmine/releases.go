package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/panbanda/defectmine/internal/output"
	"github.com/panbanda/defectmine/pkg/config"
	"github.com/panbanda/defectmine/pkg/pipeline"
	"github.com/panbanda/defectmine/pkg/release"
	"github.com/urfave/cli/v2"
)

func releasesCmd() *cli.Command {
	return &cli.Command{
		Name:      "releases",
		Usage:     "List the release index of a repository",
		ArgsUsage: "[repo]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "version-prefix", Usage: "Prefix joining tracker versions to tag names"},
		},
		Action: runReleases,
	}
}

func applyPrefixFlag(c *cli.Context, cfg *config.Config) {
	if c.IsSet("version-prefix") {
		cfg.Releases.VersionPrefix = c.String("version-prefix")
	}
}

func repoArg(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

func runReleases(c *cli.Context) error {
	e, err := setup(c, applyPrefixFlag)
	if err != nil {
		return err
	}
	defer e.Close()

	repo, cleanup, err := pipeline.OpenRepository(c.Context, repoArg(c), e.logger)
	defer cleanup()
	if err != nil {
		return err
	}
	idx, err := release.Build(repo, release.WithVersionPrefix(e.cfg.Releases.VersionPrefix))
	if err != nil {
		return err
	}
	return e.formatter.Output(releasesTable(idx))
}

func releasesTable(idx *release.Index) *output.Table {
	headers := []string{"#", "Tag", "Date", "Commit", "Window"}
	releases := idx.Releases()
	rows := make([][]string, 0, len(releases))
	for _, r := range releases {
		window := "-"
		if next, ok := idx.ByOrdinal(r.Ordinal + 1); ok {
			window = fmt.Sprintf("%s..%s", r.Name, next.Name)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Ordinal),
			r.Name,
			r.Timestamp.UTC().Format(time.DateOnly),
			r.Commit.String()[:8],
			window,
		})
	}
	footer := []string{strconv.Itoa(len(releases)), "", "", "", fmt.Sprintf("%d windows", idx.Windows())}
	return output.NewTable("Releases", headers, rows, footer, releases)
}
