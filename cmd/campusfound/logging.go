package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/erazemk/campusfound/internal/config"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	level  slog.Leveler
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// useJSON resolves the configured format. "auto" picks text on a terminal
// and JSON otherwise.
func useJSON(format string, out *os.File) bool {
	switch format {
	case "json":
		return true
	case "text":
		return false
	}
	fd := out.Fd()
	return !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If cfg.File is set, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(cfg config.Logging) (func(), error) {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	cleanup := func() {}

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	newHandler := func(w io.Writer) slog.Handler {
		if useJSON(cfg.Format, os.Stdout) {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}

	handler := &levelRouter{
		level:  level,
		stdout: newHandler(stdoutW),
		stderr: newHandler(stderrW),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}
