package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/defectmine/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a defectmine.toml with the default settings",
		Description: `Examples:
  defectmine init                                # defectmine.toml in the current directory
  defectmine init -o .defectmine/defectmine.toml
  defectmine init --force                        # overwrite an existing file`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "defectmine.toml", Usage: "Output file path"},
			&cli.BoolFlag{Name: "force", Usage: "Overwrite existing config file"},
		},
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.New(color.FgGreen).Fprintf(c.App.Writer, "Created %s\n", outputPath)
	return nil
}

func generateDefaultConfig() (string, error) {
	cfg := config.DefaultConfig()
	cfg.Projects = []config.ProjectConfig{
		{Name: "bookkeeper", Repo: "https://github.com/apache/bookkeeper", Key: "BOOKKEEPER"},
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# defectmine configuration\n")
	buf.WriteString("# Each [[projects]] entry pairs a repository with its tracker key.\n\n")
	buf.Write(content)
	return buf.String(), nil
}
