package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger as the slog default.
func Setup(level slog.Level) {
	slog.SetDefault(slog.New(NewStdoutHandler(level)))
}

func NewStdoutHandler(level slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}

// LevelFor picks debug output outside production.
func LevelFor(appEnv string) slog.Level {
	if appEnv == "production" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Fanout sends each record to every sink that accepts its level, typically
// stdout plus the system_logs table. A failing sink does not stop the others.
type Fanout struct {
	sinks []slog.Handler
}

// NewFanout skips nil sinks so optional outputs can be passed unconditionally.
func NewFanout(sinks ...slog.Handler) *Fanout {
	f := &Fanout{sinks: make([]slog.Handler, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle returns every sink error joined together.
func (f *Fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.Enabled(ctx, record.Level) {
			continue
		}
		if err := s.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (f *Fanout) derive(fn func(slog.Handler) slog.Handler) *Fanout {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = fn(s)
	}
	return &Fanout{sinks: sinks}
}
