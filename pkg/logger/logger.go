// Package logger provides the leveled logger used across the domain checker
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a thin wrapper around logrus exposing the printf-style helpers
// the rest of the application uses.
type Logger struct {
	log     *logrus.Logger
	verbose bool
	debug   bool
}

// New creates a logger writing to stderr. Only warnings and errors are shown
// until SetVerbose or SetDebug raise the level; DEBUG=true enables debug output.
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	lg := &Logger{log: l}
	lg.debug = strings.ToLower(os.Getenv("DEBUG")) == "true"
	lg.applyLevel()
	return lg
}

func (l *Logger) applyLevel() {
	switch {
	case l.debug:
		l.log.SetLevel(logrus.DebugLevel)
	case l.verbose:
		l.log.SetLevel(logrus.InfoLevel)
	default:
		l.log.SetLevel(logrus.WarnLevel)
	}
}

// Debugf logs debug messages when debug is enabled
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

// Infof logs progress and confirmation messages, shown in verbose mode
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Warnf logs warning messages
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

// Errorf logs error messages
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

// SetDebug enables or disables debug logging
func (l *Logger) SetDebug(enabled bool) {
	l.debug = enabled
	l.applyLevel()
}

// SetVerbose enables or disables progress output
func (l *Logger) SetVerbose(enabled bool) {
	l.verbose = enabled
	l.applyLevel()
}

// SetOutput redirects log output
func (l *Logger) SetOutput(w io.Writer) {
	l.log.SetOutput(w)
}

// SetLogFile mirrors log output into a rotating file next to stderr.
func (l *Logger) SetLogFile(path string) {
	if path == "" {
		return
	}
	l.log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}))
}
