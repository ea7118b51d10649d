// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/config"
)

// New builds a configured logrus logger from application config.
// Output goes to stderr; stdout is reserved for CLI JSON and MCP stdio.
func New(cfg *config.Config) (*logrus.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg *config.Config, w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	levelName, format := "info", "text"
	if cfg != nil {
		if cfg.LogLevel != "" {
			levelName = cfg.LogLevel
		}
		if cfg.LogFormat != "" {
			format = cfg.LogFormat
		}
	}

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logger, nil
}

// Discard returns a logger that drops everything. Used by tests and nil-safe constructors.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
