// Package logger provides structured logging for the crafting registry
// services. It wraps logrus so services share a consistent field-based API.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a named, field-aware logger shared by all services.
type Logger struct {
	entry *logrus.Entry
}

// Options configures a logger instance.
type Options struct {
	Service string
	Level   string
	JSON    bool
	Output  io.Writer
}

// New creates a logger with the provided options.
func New(opts Options) *Logger {
	base := logrus.New()

	if opts.Output != nil {
		base.SetOutput(opts.Output)
	} else {
		base.SetOutput(os.Stdout)
	}

	if opts.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	entry := logrus.NewEntry(base)
	if opts.Service != "" {
		entry = entry.WithField("service", opts.Service)
	}
	return &Logger{entry: entry}
}

// NewDefault creates an info-level text logger named after the service.
func NewDefault(service string) *Logger {
	return New(Options{Service: service})
}

// WithField returns an entry with an additional field attached.
func (l *Logger) WithField(key string, value any) *logrus.Entry {
	return l.entry.WithField(key, value)
}

// WithFields returns an entry with the provided fields attached.
func (l *Logger) WithFields(fields map[string]any) *logrus.Entry {
	if fields == nil {
		return l.entry
	}
	return l.entry.WithFields(logrus.Fields(fields))
}

// WithError returns an entry carrying the error field.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entry.WithError(err)
}

func (l *Logger) Debug(args ...any)                 { l.entry.Debug(args...) }
func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(args ...any)                  { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...any)                  { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...any)                 { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
