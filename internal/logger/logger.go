package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the logging surface every package depends on.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	*slog.Logger
}

// New builds a logger writing to w. format is "json" or "text".
func New(w io.Writer, level, format string) Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &SlogLogger{slog.New(h)}
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Debugf(format string, v ...any) { l.Debug(fmt.Sprintf(format, v...)) }
func (l *SlogLogger) Infof(format string, v ...any)  { l.Info(fmt.Sprintf(format, v...)) }
func (l *SlogLogger) Warnf(format string, v ...any)  { l.Warn(fmt.Sprintf(format, v...)) }
func (l *SlogLogger) Errorf(format string, v ...any) { l.Error(fmt.Sprintf(format, v...)) }

type nop struct{}

func (nop) Debugf(string, ...any) {}
func (nop) Infof(string, ...any)  {}
func (nop) Warnf(string, ...any)  {}
func (nop) Errorf(string, ...any) {}

// Nop discards everything.
func Nop() Logger { return nop{} }
