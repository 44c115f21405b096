// Package logger provides leveled logging for the scanner. It wraps the
// standard log package with level filtering so per-cell parse chatter can be
// silenced in production while per-competition progress stays visible.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	// DebugLevel logs per-cell and per-row detail; disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default priority: per-competition progress and run summaries.
	InfoLevel
	// WarnLevel logs skipped units (failed fetches, unparseable tables).
	WarnLevel
	// ErrorLevel logs failures that lose data for the current run.
	ErrorLevel
)

var defaultLogger *Logger

// Logger provides leveled logging.
type Logger struct {
	level Level
	out   *log.Logger
}

// Init initializes the default logger. Level names are debug, info, warn,
// error; unknown names fall back to info. The text format adds source file
// positions, which json omits.
func Init(level, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	defaultLogger = &Logger{
		level: parseLevel(level),
		out:   log.New(os.Stderr, "", flags),
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func emit(min Level, tag, format string, args ...any) {
	if defaultLogger == nil || defaultLogger.level > min {
		return
	}
	_ = defaultLogger.out.Output(3, fmt.Sprintf(tag+" "+format, args...))
}

// Debug logs a message at DebugLevel.
func Debug(format string, args ...any) {
	emit(DebugLevel, "[DEBUG]", format, args...)
}

// Info logs a message at InfoLevel.
func Info(format string, args ...any) {
	emit(InfoLevel, "[INFO]", format, args...)
}

// Warn logs a message at WarnLevel.
func Warn(format string, args ...any) {
	emit(WarnLevel, "[WARN]", format, args...)
}

// Error logs a message at ErrorLevel.
func Error(format string, args ...any) {
	emit(ErrorLevel, "[ERROR]", format, args...)
}

// Fatal logs a message and exits with status 1.
func Fatal(format string, args ...any) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.out.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}
