package logging

import (
	"context"

	"go.uber.org/zap"
)

type ZapLogger struct{ L *zap.Logger }

var _ Logger = ZapLogger{}

func (z ZapLogger) Debug(ctx context.Context, msg string, f Fields) {
	z.L.Debug(msg, zapFields(ctx, f)...)
}

func (z ZapLogger) Info(ctx context.Context, msg string, f Fields) {
	z.L.Info(msg, zapFields(ctx, f)...)
}

func (z ZapLogger) Warn(ctx context.Context, msg string, f Fields) {
	z.L.Warn(msg, zapFields(ctx, f)...)
}

func (z ZapLogger) Error(ctx context.Context, msg string, f Fields) {
	z.L.Error(msg, zapFields(ctx, f)...)
}

func zapFields(ctx context.Context, f Fields) []zap.Field {
	merged := withMeta(ctx, f)
	if len(merged) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(merged))
	for k, v := range merged {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
