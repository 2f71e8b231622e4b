// Package logging builds the diagnostic logger. User-facing output goes
// through the ui package; the logger carries debug detail to stderr.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLevel is used when no level, or an unknown one, is configured.
const DefaultLevel = logrus.WarnLevel

// New creates a text logger writing to stderr at the given level name.
// An unknown level falls back to DefaultLevel and is reported through the
// returned logger.
func New(level string) *logrus.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with a custom destination.
func NewWithWriter(w io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	if level == "" {
		logger.SetLevel(DefaultLevel)
		return logger
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(DefaultLevel)
		logger.WithError(err).Warnf("Unknown log level %q, using %s", level, DefaultLevel)
		return logger
	}

	logger.SetLevel(parsed)
	return logger
}

// Discard returns a logger that drops everything; useful in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
