// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ParseLevel converts a level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Init installs a tint handler on stderr as the default logger. Colors are
// disabled when stderr is not a terminal.
func Init(level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(colorable.NewColorable(os.Stderr), level, !isatty.IsTerminal(os.Stderr.Fd()))))
}

// NewHandler returns the console handler used by Init
func NewHandler(w io.Writer, level slog.Leveler, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  "15:04:05.000",
		NoColor:     noColor,
		ReplaceAttr: dropEmpty,
	})
}

// dropEmpty hides attributes with zero values
func dropEmpty(groups []string, a slog.Attr) slog.Attr {
	switch v := a.Value.Any().(type) {
	case string:
		if v == "" && a.Key != slog.MessageKey {
			return slog.Attr{}
		}
	case nil:
		return slog.Attr{}
	}
	return a
}
