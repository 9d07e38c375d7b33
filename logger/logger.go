package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// LogLevel defines the severity of the log
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// ParseLevel converts a level name ("silent", "error", "warn", "info") to a LogLevel.
func ParseLevel(name string) (LogLevel, bool) {
	switch strings.ToLower(name) {
	case "silent":
		return LogLevelSilent, true
	case "error":
		return LogLevelError, true
	case "warn":
		return LogLevelWarn, true
	case "info":
		return LogLevelInfo, true
	}
	return LogLevelInfo, false
}

// LogFormat defines the output format of the log
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Logger is the interface for logging pool lifecycle events and internal messages
type Logger interface {
	SetLevel(level LogLevel)
	SetFormat(format LogFormat)
	SetOutput(w io.Writer)
	WithFields(fields map[string]any) Logger
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Op(op string, duration time.Duration, args ...any)
}

// baseLogger contains common logging functionality
type baseLogger struct {
	level  LogLevel
	format LogFormat
	writer io.Writer
	fields map[string]any
}

func (l *baseLogger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *baseLogger) SetFormat(format LogFormat) {
	l.format = format
}

func (l *baseLogger) SetOutput(w io.Writer) {
	l.writer = w
}

func (l *baseLogger) clone() *baseLogger {
	newFields := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	return &baseLogger{
		level:  l.level,
		format: l.format,
		writer: l.writer,
		fields: newFields,
	}
}

// stdLogger is the default implementation of Logger
type stdLogger struct {
	baseLogger
}

// NewStdLogger creates a new standard logger
func NewStdLogger() Logger {
	return &stdLogger{
		baseLogger: baseLogger{
			level:  LogLevelInfo,
			format: LogFormatText,
			writer: os.Stdout,
			fields: make(map[string]any),
		},
	}
}

func (l *stdLogger) WithFields(fields map[string]any) Logger {
	newLogger := &stdLogger{
		baseLogger: *l.clone(),
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (l *stdLogger) Info(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("INFO", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Warn(format string, args ...any) {
	if l.level >= LogLevelWarn {
		l.log("WARN", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Error(format string, args ...any) {
	if l.level >= LogLevelError {
		l.log("ERROR", fmt.Sprintf(format, args...), nil)
	}
}

// Op logs a timed pool operation (open, checkout, discard, sweep) together
// with optional key/value detail pairs.
func (l *stdLogger) Op(op string, duration time.Duration, args ...any) {
	if l.level < LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		extra := map[string]any{"op": op, "duration": duration.String()}
		for i := 0; i+1 < len(args); i += 2 {
			if key, ok := args[i].(string); ok {
				extra[key] = args[i+1]
			}
		}
		l.log("OP", "", extra)
		return
	}
	msg := fmt.Sprintf("[%v] %s", duration, op)
	if len(args) > 0 {
		msg = fmt.Sprintf("%s | %v", msg, args)
	}
	l.log("OP", opColor(op)+msg+ansiReset, nil)
}

func (l *stdLogger) log(level, msg string, extra map[string]any) {
	now := time.Now()
	if l.format == LogFormatJSON {
		data := make(map[string]any, len(l.fields)+len(extra)+3)
		for k, v := range l.fields {
			data[k] = v
		}
		for k, v := range extra {
			data[k] = v
		}
		data["time"] = now.Format(time.RFC3339)
		data["level"] = level
		if msg != "" {
			data["msg"] = msg
		}
		json.NewEncoder(l.writer).Encode(data)
		return
	}

	fieldStr := ""
	if len(l.fields) > 0 {
		fieldStr = fmt.Sprintf(" fields: %v", l.fields)
	}
	fmt.Fprintf(l.writer, "[DBPOOL] %s %s: %s%s\n", now.Format("2006-01-02 15:04:05"), level, msg, fieldStr)
}

func opColor(op string) string {
	switch op {
	case "open":
		return ansiGreen
	case "checkout", "reuse":
		return ansiYellow
	case "discard", "close":
		return ansiRed
	default:
		return ansiCyan
	}
}
