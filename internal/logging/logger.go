// Package logging provides the key/value logger used across the module.
package logging

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"
)

// Logger receives a message plus alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Level filters messages below it.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// ParseLevel maps a configuration string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "off", "none":
		return LevelOff, nil
	}
	return LevelOff, fmt.Errorf("unknown log level %q", s)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Noop discards everything.
func Noop() Logger { return noopLogger{} }

// New returns a Logger writing through the trekker loggers. trekker has no
// warning stream, so warnings go to its info stream with a WARN marker.
func New(level Level) Logger {
	if level >= LevelOff {
		return Noop()
	}
	return trekkerLogger{level: level}
}

type trekkerLogger struct {
	level Level
}

func (l trekkerLogger) Debug(msg string, args ...any) {
	if l.level <= LevelDebug {
		logger.Debug.Printf("%s%s", msg, FormatArgs(args))
	}
}

func (l trekkerLogger) Info(msg string, args ...any) {
	if l.level <= LevelInfo {
		logger.Info.Printf("%s%s", msg, FormatArgs(args))
	}
}

func (l trekkerLogger) Warn(msg string, args ...any) {
	if l.level <= LevelWarn {
		logger.Info.Printf("WARN %s%s", msg, FormatArgs(args))
	}
}

func (l trekkerLogger) Error(msg string, args ...any) {
	if l.level <= LevelError {
		logger.Error.Printf("%s%s", msg, FormatArgs(args))
	}
}

// FormatArgs renders key/value pairs as " k=v k2=v2". A dangling value is
// reported under the key !BADKEY.
func FormatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fmt.Fprintf(&b, " !BADKEY=%v", args[i])
			break
		}
		val := fmt.Sprint(args[i+1])
		if strings.ContainsAny(val, " \t\"=") {
			val = fmt.Sprintf("%q", val)
		}
		fmt.Fprintf(&b, " %v=%s", args[i], val)
	}
	return b.String()
}
