// Package logger configures the logrus logger shared by every phase of a run.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with field helpers for benchmark phases.
type Logger struct {
	*logrus.Logger
}

// New creates a logger writing line-oriented text to out (stdout when nil).
// Unknown levels fall back to info.
func New(level string, out io.Writer) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02 15:04:05.000",
		DisableColors:    true,
		QuoteEmptyFields: true,
	})

	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)

	return &Logger{Logger: log}
}

// WithPhase returns an entry tagged with the run phase.
func (l *Logger) WithPhase(phase string) *logrus.Entry {
	return l.Logger.WithField("phase", phase)
}

// WithDriver returns an entry tagged with the database driver name.
func (l *Logger) WithDriver(driver string) *logrus.Entry {
	return l.Logger.WithField("driver", driver)
}

// SetLevelName changes the level, keeping the current one if name does not
// parse.
func (l *Logger) SetLevelName(name string) {
	if lvl, err := logrus.ParseLevel(name); err == nil {
		l.Logger.SetLevel(lvl)
	}
}
