package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ Logger = LogrusLogger{}

func (l LogrusLogger) Debug(ctx context.Context, msg string, f Fields) {
	l.entry(ctx, f).Debug(msg)
}

func (l LogrusLogger) Info(ctx context.Context, msg string, f Fields) {
	l.entry(ctx, f).Info(msg)
}

func (l LogrusLogger) Warn(ctx context.Context, msg string, f Fields) {
	l.entry(ctx, f).Warn(msg)
}

func (l LogrusLogger) Error(ctx context.Context, msg string, f Fields) {
	l.entry(ctx, f).Error(msg)
}

func (l LogrusLogger) entry(ctx context.Context, f Fields) *logrus.Entry {
	return l.E.WithContext(ctx).WithFields(logrus.Fields(withMeta(ctx, f)))
}
