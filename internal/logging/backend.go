package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrUnknownBackend = errors.New("unknown log backend")

const (
	BackendSlog   = "slog"
	BackendZap    = "zap"
	BackendLogrus = "logrus"
)

// New builds a JSON logger for the given backend writing to w.
// The returned func flushes buffered records and should be called before exiting.
func New(backend string, w io.Writer, debug bool, gcpProject string, instanceID string) (Logger, func(), error) {
	switch backend {
	case BackendSlog, "":
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		handler := NewTraceLogHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), gcpProject)
		logger := slog.New(handler).With(slog.String("instanceID", instanceID))
		return SlogLogger{L: logger}, func() {}, nil

	case BackendZap:
		level := zapcore.InfoLevel
		if debug {
			level = zapcore.DebugLevel
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			level,
		)
		logger := zap.New(core).With(zap.String("instanceID", instanceID))
		return ZapLogger{L: logger}, func() { _ = logger.Sync() }, nil

	case BackendLogrus:
		logger := logrus.New()
		logger.SetOutput(w)
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
		if debug {
			logger.SetLevel(logrus.DebugLevel)
		}
		return LogrusLogger{E: logger.WithField("instanceID", instanceID)}, func() {}, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
}
