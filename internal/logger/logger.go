package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// levelFatal sits above slog.LevelError so handlers never filter it
const levelFatal = slog.Level(12)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	case FATAL:
		return levelFatal
	default:
		return slog.LevelInfo
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	JSONFormat LogFormat = iota
	TextFormat
)

// LogEntry mirrors one JSON log line
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Source    *slog.Source           `json:"source,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger is a structured, leveled logger backed by log/slog
type Logger struct {
	mu        sync.RWMutex
	level     *slog.LevelVar
	format    LogFormat
	output    io.Writer
	noColor   bool
	component string
	handler   slog.Handler
}

// Config holds logger configuration
type Config struct {
	Level     LogLevel
	Format    LogFormat
	Output    io.Writer
	Component string
	NoColor   bool // text format only
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	lv := new(slog.LevelVar)
	lv.Set(config.Level.slogLevel())

	l := &Logger{
		level:     lv,
		format:    config.Format,
		output:    config.Output,
		noColor:   config.NoColor,
		component: config.Component,
	}
	l.handler = l.buildHandler()
	return l
}

// NewDefault creates a logger with default configuration
func NewDefault() *Logger {
	return New(Config{
		Level:  INFO,
		Format: JSONFormat,
		Output: os.Stdout,
	})
}

func (l *Logger) buildHandler() slog.Handler {
	if l.format == TextFormat {
		return tint.NewHandler(l.output, &tint.Options{
			Level:      l.level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    l.noColor,
		})
	}
	return slog.NewJSONHandler(l.output, &slog.HandlerOptions{
		Level:       l.level,
		AddSource:   true,
		ReplaceAttr: replaceJSONAttr,
	})
}

// replaceJSONAttr renames the built-in keys to the LogEntry layout
func replaceJSONAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("timestamp", a.Value.Time().UTC().Format(time.RFC3339))
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= levelFatal {
			return slog.String(slog.LevelKey, FATAL.String())
		}
	}
	return a
}

// WithComponent creates a new logger with the specified component name
func (l *Logger) WithComponent(component string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &Logger{
		level:     l.level,
		format:    l.format,
		output:    l.output,
		noColor:   l.noColor,
		component: component,
		handler:   l.handler,
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Set(level.slogLevel())
}

// SetFormat sets the log output format
func (l *Logger) SetFormat(format LogFormat) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.handler = l.buildHandler()
}

// Slog exposes the logger as a *slog.Logger for libraries that take one
func (l *Logger) Slog() *slog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sl := slog.New(l.handler)
	if l.component != "" {
		sl = sl.With("component", l.component)
	}
	return sl
}

// log is the internal logging method; skip is the number of frames above log
func (l *Logger) log(skip int, level LogLevel, message string, fields map[string]interface{}, err error) {
	l.mu.RLock()
	h := l.handler
	component := l.component
	l.mu.RUnlock()

	ctx := context.Background()
	lvl := level.slogLevel()
	if !h.Enabled(ctx, lvl) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(skip+2, pcs[:])

	r := slog.NewRecord(time.Now(), lvl, message, pcs[0])
	if component != "" {
		r.AddAttrs(slog.String("component", component))
	}
	if len(fields) > 0 {
		r.AddAttrs(fieldsGroup(fields))
	}
	if err != nil {
		r.AddAttrs(slog.String("error", err.Error()))
	}

	_ = h.Handle(ctx, r)

	if level == FATAL {
		os.Exit(1)
	}
}

// fieldsGroup renders a fields map as a sorted slog group
func fieldsGroup(fields map[string]interface{}) slog.Attr {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, slog.Any(k, fields[k]))
	}
	return slog.Group("fields", args...)
}

func firstFields(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	l.log(1, DEBUG, message, firstFields(fields), nil)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	l.log(1, INFO, message, firstFields(fields), nil)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	l.log(1, WARN, message, firstFields(fields), nil)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, fields ...map[string]interface{}) {
	l.log(1, ERROR, message, firstFields(fields), err)
}

// Fatal logs a fatal message and exits the program
func (l *Logger) Fatal(message string, err error, fields ...map[string]interface{}) {
	l.log(1, FATAL, message, firstFields(fields), err)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(1, DEBUG, fmt.Sprintf(format, args...), nil, nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(1, INFO, fmt.Sprintf(format, args...), nil, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(1, WARN, fmt.Sprintf(format, args...), nil, nil)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(1, ERROR, fmt.Sprintf(format, args...), nil, nil)
}

// Fatalf logs a formatted fatal message and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(1, FATAL, fmt.Sprintf(format, args...), nil, nil)
}
