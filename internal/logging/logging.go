// Package logging builds the logrus logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects the logger's level and output format.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// OptionsFromEnv reads PODCAST_LOG_LEVEL and PODCAST_LOG_FORMAT.
func OptionsFromEnv() Options {
	return Options{
		Level:  strings.TrimSpace(os.Getenv("PODCAST_LOG_LEVEL")),
		Format: strings.TrimSpace(os.Getenv("PODCAST_LOG_FORMAT")),
	}
}

// New returns a logger configured from opts. Unknown levels fall back to info,
// unknown formats to text.
func New(opts Options) *logrus.Logger {
	logger := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	if strings.EqualFold(opts.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDefault returns logger, or the logrus standard logger when nil.
func OrDefault(logger *logrus.Logger) *logrus.Logger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
