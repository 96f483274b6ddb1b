package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/defectmine/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Show the effective configuration as TOML",
				Action: runConfigShow,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema configs are validated against",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintln(c.App.Writer, config.Schema())
					return err
				},
			},
		},
	}
}

func runConfigValidate(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		color.New(color.FgRed).Fprintln(c.App.Writer, "Configuration validation failed:")
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}

	if path != "" {
		color.New(color.FgGreen).Fprintf(c.App.Writer, "Configuration valid: %s\n", path)
	} else {
		color.New(color.FgYellow).Fprintln(c.App.Writer, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}

	if path != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", path)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(content)
	return err
}
