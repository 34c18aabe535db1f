// Package logger provides slog loggers with a colored text handler for
// terminals. Warnings print in yellow, errors in red, and ranking milestones
// in green so they stand out in busy pipeline output.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level to log.
	Level slog.Level `json:"level" mapstructure:"level"`

	// Format is "text" (colored) or "json".
	Format string `json:"format" mapstructure:"format"`

	// Output defaults to stderr.
	Output io.Writer `json:"-"`

	// NoColor disables ANSI colors in text output.
	NoColor bool `json:"no_color" mapstructure:"no_color"`
}

// NewDefaultLogger creates a colored text logger writing to stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return NewLogger(Config{Level: level})
}

// NewLogger creates a logger from the given configuration.
func NewLogger(config Config) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	if config.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: config.Level}))
	}

	return slog.New(&colorHandler{
		out:     out,
		level:   config.Level,
		noColor: config.NoColor,
		mu:      &sync.Mutex{},
	})
}

// colorHandler is a slog.Handler that writes human-readable colored lines.
type colorHandler struct {
	out     io.Writer
	level   slog.Level
	noColor bool
	attrs   []slog.Attr
	groups  []string
	mu      *sync.Mutex
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder

	b.WriteString(record.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(h.colorize(levelColor(record.Level), fmt.Sprintf("%-5s", record.Level.String())))
	b.WriteByte(' ')
	b.WriteString(h.colorize(messageColor(record.Level, record.Message), record.Message))

	appendAttr := func(attr slog.Attr) {
		key := attr.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		b.WriteByte(' ')
		b.WriteString(h.colorize(colorGray, key+"="))
		b.WriteString(fmt.Sprintf("%v", attr.Value.Resolve().Any()))
	}

	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(attr)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *colorHandler) colorize(color, s string) string {
	if h.noColor || color == "" {
		return s
	}
	return color + s + colorReset
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level < slog.LevelInfo:
		return colorGray
	default:
		return ""
	}
}

// messageColor highlights ranking milestones in green. Warnings and errors
// keep their level color on the message too.
func messageColor(level slog.Level, message string) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	}

	lowered := strings.ToLower(message)
	if strings.Contains(lowered, "rank") || strings.Contains(lowered, "warm") {
		return colorGreen
	}
	return ""
}
