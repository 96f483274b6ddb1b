package main

import (
	"fmt"
	"strconv"

	"github.com/panbanda/defectmine/internal/output"
	"github.com/panbanda/defectmine/pkg/pipeline"
	"github.com/panbanda/defectmine/pkg/proportion"
	"github.com/panbanda/defectmine/pkg/release"
	"github.com/urfave/cli/v2"
)

func proportionCmd() *cli.Command {
	return &cli.Command{
		Name:      "proportion",
		Usage:     "Train and print the Proportion table of a project",
		ArgsUsage: "<repo> <key>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tracker", Usage: "Tracker kind: jira, github, file"},
			&cli.StringFlag{Name: "tickets-file", Usage: "Saved Jira search response for --tracker file"},
			&cli.StringFlag{Name: "version-prefix", Usage: "Prefix joining tracker versions to tag names"},
			&cli.BoolFlag{Name: "samples", Usage: "Also list the tickets that trained the table"},
		},
		Action: runProportion,
	}
}

func runProportion(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <repo> <key>, got %d arguments", c.Args().Len())
	}
	e, err := setup(c, applyMineFlags)
	if err != nil {
		return err
	}
	defer e.Close()

	repo, cleanup, err := pipeline.OpenRepository(c.Context, c.Args().Get(0), e.logger)
	defer cleanup()
	if err != nil {
		return err
	}
	idx, err := release.Build(repo, release.WithVersionPrefix(e.cfg.Releases.VersionPrefix))
	if err != nil {
		return err
	}
	src, err := pipeline.NewSource(e.cfg, e.logger)
	if err != nil {
		return err
	}
	tickets, err := src.Tickets(c.Context, c.Args().Get(1))
	if err != nil {
		return err
	}
	trained := proportion.New(idx).Train(tickets)

	report := &output.Report{Tables: []*output.Table{entriesTable(trained)}}
	if c.Bool("samples") {
		report.Tables = append(report.Tables, samplesTable(trained))
	}
	return e.formatter.Output(report)
}

func entriesTable(trained *proportion.Trained) *output.Table {
	headers := []string{"#", "Tag", "P", "Samples", "Cumulative"}
	entries := trained.Entries()
	rows := make([][]string, 0, len(entries))
	for _, en := range entries {
		rows = append(rows, []string{
			strconv.Itoa(en.Release.Ordinal),
			en.Release.Name,
			strconv.Itoa(en.P),
			strconv.Itoa(en.Samples),
			strconv.Itoa(en.Total),
		})
	}
	var footer []string
	if len(entries) == 0 {
		footer = []string{"", "", strconv.Itoa(proportion.DefaultP), "0", "0"}
	}
	return output.NewTable("Proportion", headers, rows, footer, entries)
}

func samplesTable(trained *proportion.Trained) *output.Table {
	headers := []string{"Ticket", "IV", "OV", "FV", "P"}
	samples := trained.Samples()
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			s.TicketID,
			strconv.Itoa(s.Injected),
			strconv.Itoa(s.Opening),
			strconv.Itoa(s.Fixed),
			strconv.Itoa(s.P),
		})
	}
	return output.NewTable("Training samples", headers, rows, nil, samples)
}
