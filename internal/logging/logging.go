// Package logging builds the logrus logger shared by the pipeline and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures a logger.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // text, json
	Writer io.Writer
}

// New returns a logger writing to opts.Writer (stderr by default).
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.Writer != nil {
		logger.SetOutput(opts.Writer)
	} else {
		logger.SetOutput(os.Stderr)
	}
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
