package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "defectmine",
		Usage:   "Build per-release defect datasets from git history and issue trackers",
		Version: version,
		Description: `defectmine walks the tagged releases of a repository, computes change
metrics for every source file in every release window, labels the files
touched by bug fixes as buggy in the releases the bug affected, and writes
one CSV row per (release, file).`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"DEFECTMINE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: text, json, markdown, toon, yaml",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Always query the issue tracker",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log every phase at debug level",
			},
		},
		Commands: []*cli.Command{
			mineCmd(),
			releasesCmd(),
			proportionCmd(),
			initCmd(),
			configCmd(),
			cacheCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		stop()
		os.Exit(1)
	}
}
