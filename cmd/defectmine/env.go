package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/defectmine/internal/logging"
	"github.com/panbanda/defectmine/internal/output"
	"github.com/panbanda/defectmine/internal/progress"
	"github.com/panbanda/defectmine/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// env is the state every command shares: the effective config, the logger
// and the report formatter.
type env struct {
	cfg       *config.Config
	cfgPath   string
	logger    *logrus.Logger
	formatter *output.Formatter
	colored   bool
	verbose   bool
}

func loadConfig(c *cli.Context) (*config.Config, string, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, path, fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, path, nil
	}
	return config.LoadOrDefault()
}

// setup loads the config, applies the global flags and any command
// overrides, then validates the result.
func setup(c *cli.Context, overrides ...func(*cli.Context, *config.Config)) (*env, error) {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	if f := c.String("format"); f != "" {
		cfg.Output.Format = string(output.ParseFormat(f))
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	for _, o := range overrides {
		o(c, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.WithField("path", path).Debug("config loaded")
	}

	colored := cfg.Output.Color && !color.NoColor
	format := output.ParseFormat(cfg.Output.Format)
	var formatter *output.Formatter
	if out := c.String("output"); out != "" {
		formatter, err = output.NewFormatter(format, out, colored)
		if err != nil {
			return nil, err
		}
	} else {
		formatter = output.NewWriterFormatter(format, c.App.Writer, colored)
	}

	return &env{
		cfg:       cfg,
		cfgPath:   path,
		logger:    logger,
		formatter: formatter,
		colored:   colored,
		verbose:   c.Bool("verbose"),
	}, nil
}

func (e *env) Close() error {
	return e.formatter.Close()
}

// progress hides bars when logging would interleave with them.
func (e *env) progress(c *cli.Context, hidden bool) progress.Options {
	return progress.Options{
		Writer: c.App.ErrWriter,
		Hidden: hidden || e.verbose || !e.colored,
	}
}
