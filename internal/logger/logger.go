// Package logger wraps logrus with the collector's dual file/console sink
// configuration and a variadic key/value logging API.
package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// FileConfig configures the file logging sink.
type FileConfig struct {
	Enabled bool
	Level   string
	Format  string
	Path    string
}

// ConsoleConfig configures the console logging sink.
type ConsoleConfig struct {
	Enabled bool
	Level   string
	Format  string
}

// Config contains logger configuration.
type Config struct {
	File    FileConfig
	Console ConsoleConfig
}

// Logger handles application logging across a console sink and/or a file
// sink, each with its own level and format.
type Logger struct {
	fileLogger     *logrus.Logger
	consoleLogger  *logrus.Logger
	fileEnabled    bool
	consoleEnabled bool
	fileHandle     *os.File
}

// NewLogger creates a new application logger with multiple outputs.
func NewLogger(cfg *Config) (*Logger, error) {
	l := &Logger{}

	if cfg.Console.Enabled {
		l.consoleLogger = newLogrusLogger(cfg.Console.Level, cfg.Console.Format, os.Stdout, true)
		l.consoleEnabled = true
	}

	if cfg.File.Enabled && cfg.File.Path != "" {
		f, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("logger: open file sink: %w", err)
		}
		l.fileLogger = newLogrusLogger(cfg.File.Level, cfg.File.Format, f, false)
		l.fileEnabled = true
		l.fileHandle = f
	}

	if !l.fileEnabled && !l.consoleEnabled {
		l.consoleLogger = newLogrusLogger("info", "text", os.Stdout, true)
		l.consoleEnabled = true
	}

	return l, nil
}

func newLogrusLogger(level, format string, out *os.File, colors bool) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     colors,
		})
	}
	log.SetOutput(out)
	return log
}

// Info logs an info message to every enabled output.
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.log(logrus.InfoLevel, msg, fields...)
}

// Warn logs a warning message to every enabled output.
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.log(logrus.WarnLevel, msg, fields...)
}

// Error logs an error message to every enabled output.
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.log(logrus.ErrorLevel, msg, fields...)
}

// Debug logs a debug message to every enabled output.
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.log(logrus.DebugLevel, msg, fields...)
}

func (l *Logger) log(level logrus.Level, msg string, fields ...interface{}) {
	logFields := l.parseFields(fields...)

	for _, lg := range []*logrus.Logger{l.fileLogger, l.consoleLogger} {
		if lg == nil {
			continue
		}
		entry := lg.WithFields(logFields)
		switch level {
		case logrus.InfoLevel:
			entry.Info(msg)
		case logrus.WarnLevel:
			entry.Warn(msg)
		case logrus.ErrorLevel:
			entry.Error(msg)
		case logrus.DebugLevel:
			entry.Debug(msg)
		}
	}
}

// parseFields converts variadic key/value pairs to logrus.Fields.
func (l *Logger) parseFields(fields ...interface{}) logrus.Fields {
	result := make(logrus.Fields)
	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			result[key] = fields[i+1]
		}
	}
	return result
}

// Close releases the file sink handle, if any.
func (l *Logger) Close() error {
	if l.fileHandle != nil {
		return l.fileHandle.Close()
	}
	return nil
}
