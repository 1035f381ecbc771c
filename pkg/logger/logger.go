package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the teamkb server.
// Package-level helpers write through the root logger; Named returns a
// component logger that prefixes every line with its component name.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	out    *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
	exitFn             = os.Exit
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = ParseLevel(l)
}

// ParseLevel converts a textual level to a Level.
func ParseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// SetOutput redirects all log output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", 0)
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func write(l Level, component, format string, v ...interface{}) {
	if l != LevelFatal && !enabled(l) {
		return
	}
	var b strings.Builder
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(l.String()))
	b.WriteString("] ")
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	b.WriteString(fmt.Sprintf(format, v...))
	mu.RLock()
	o := out
	mu.RUnlock()
	o.Print(b.String())
}

// Logger is a component-scoped logger.
type Logger struct {
	component string
}

// Named returns a logger whose lines are prefixed with component.
func Named(component string) *Logger { return &Logger{component: component} }

func (l *Logger) Debugf(format string, v ...interface{}) { write(LevelDebug, l.component, format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { write(LevelInfo, l.component, format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { write(LevelWarn, l.component, format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { write(LevelError, l.component, format, v...) }

func Debugf(format string, v ...interface{}) { write(LevelDebug, "", format, v...) }
func Infof(format string, v ...interface{})  { write(LevelInfo, "", format, v...) }
func Warnf(format string, v ...interface{})  { write(LevelWarn, "", format, v...) }
func Errorf(format string, v ...interface{}) { write(LevelError, "", format, v...) }

// Fatalf always logs and terminates the process.
func Fatalf(format string, v ...interface{}) {
	write(LevelFatal, "", format, v...)
	exitFn(1)
}

func Info(v string) { Infof("%s", v) }
func Warn(v string) { Warnf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}
