package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps what it receives and fails with err when set.
type recordingSink struct {
	min     slog.Level
	err     error
	records []slog.Record
	attrs   []slog.Attr
}

func (s *recordingSink) Enabled(_ context.Context, level slog.Level) bool { return level >= s.min }

func (s *recordingSink) Handle(_ context.Context, r slog.Record) error {
	r.AddAttrs(s.attrs...)
	s.records = append(s.records, r)
	return s.err
}

func (s *recordingSink) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingSink{min: s.min, err: s.err, attrs: append(append([]slog.Attr{}, s.attrs...), attrs...)}
}

func (s *recordingSink) WithGroup(string) slog.Handler { return s }

func TestFanoutRoutesByLevel(t *testing.T) {
	info := &recordingSink{min: slog.LevelInfo}
	errOnly := &recordingSink{min: slog.LevelError}
	f := NewFanout(info, nil, errOnly)

	assert.True(t, f.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, f.Enabled(context.Background(), slog.LevelDebug))

	require.NoError(t, f.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "report created", 0)))
	require.NoError(t, f.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "insert failed", 0)))

	assert.Len(t, info.records, 2)
	require.Len(t, errOnly.records, 1)
	assert.Equal(t, "insert failed", errOnly.records[0].Message)
}

func TestFanoutJoinsSinkErrors(t *testing.T) {
	errA := errors.New("stdout closed")
	errB := errors.New("db down")
	a := &recordingSink{err: errA}
	ok := &recordingSink{}
	b := &recordingSink{err: errB}

	err := NewFanout(a, ok, b).Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelWarn, "rejected", 0))
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, ok.records, 1, "a failing sink must not stop later sinks")
	assert.Len(t, b.records, 1)
}

func TestFanoutWithAttrsReachesEverySink(t *testing.T) {
	h := NewFanout(&recordingSink{}, &recordingSink{}).WithAttrs([]slog.Attr{slog.String("ip", "10.0.0.1")})
	require.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0)))

	for _, s := range h.(*Fanout).sinks {
		sink := s.(*recordingSink)
		require.Len(t, sink.records, 1)
		var ip string
		sink.records[0].Attrs(func(a slog.Attr) bool {
			if a.Key == "ip" {
				ip = a.Value.String()
			}
			return true
		})
		assert.Equal(t, "10.0.0.1", ip)
	}
}
