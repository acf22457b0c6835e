package logging

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

type SlogLogger struct{ L *slog.Logger }

var _ Logger = SlogLogger{}

func (s SlogLogger) Debug(ctx context.Context, msg string, f Fields) {
	s.L.LogAttrs(ctx, slog.LevelDebug, msg, attrs(ctx, f)...)
}

func (s SlogLogger) Info(ctx context.Context, msg string, f Fields) {
	s.L.LogAttrs(ctx, slog.LevelInfo, msg, attrs(ctx, f)...)
}

func (s SlogLogger) Warn(ctx context.Context, msg string, f Fields) {
	s.L.LogAttrs(ctx, slog.LevelWarn, msg, attrs(ctx, f)...)
}

func (s SlogLogger) Error(ctx context.Context, msg string, f Fields) {
	s.L.LogAttrs(ctx, slog.LevelError, msg, attrs(ctx, f)...)
}

func attrs(ctx context.Context, f Fields) []slog.Attr {
	merged := withMeta(ctx, f)
	if len(merged) == 0 {
		return nil
	}

	// Sorted for stable output
	out := make([]slog.Attr, 0, len(merged))
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		out = append(out, slog.Any(k, merged[k]))
	}
	return out
}
