package main

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/panbanda/defectmine/internal/cache"
	"github.com/panbanda/defectmine/internal/output"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear ticket snapshots",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show snapshot count, size and age",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every snapshot so the next run queries the tracker",
				Action: runCacheClear,
			},
		},
	}
}

func openCache(e *env) (*cache.Cache, error) {
	return cache.New(e.cfg.Cache.Dir, time.Duration(e.cfg.Cache.TTL)*time.Hour, true)
}

func runCacheStats(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := openCache(e)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return err
	}
	return e.formatter.Output(cacheTable(e.cfg.Cache.Dir, stats))
}

func cacheTable(dir string, stats *cache.Stats) *output.Table {
	age := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	}
	rows := [][]string{
		{"Directory", dir},
		{"Snapshots", strconv.Itoa(stats.Entries)},
		{"Size", humanize.Bytes(uint64(stats.TotalSize))},
		{"Oldest", age(stats.Oldest)},
		{"Newest", age(stats.Newest)},
	}
	return output.NewTable("Ticket cache", []string{"Field", "Value"}, rows, nil, stats)
}

func runCacheClear(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := openCache(e)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	e.formatter.Success("Cleared %s", e.cfg.Cache.Dir)
	return nil
}
