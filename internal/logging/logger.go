// Package logging is the diagnostic sink used by the cache.
//
// Logger is deliberately small so it can be adapted to any logging stack.
// Implementations must be safe for concurrent use and must never panic or block for long.
package logging

import "context"

// Fields is a minimal structured field map for logs
type Fields map[string]any

type Logger interface {
	Debug(ctx context.Context, msg string, f Fields)
	Info(ctx context.Context, msg string, f Fields)
	Warn(ctx context.Context, msg string, f Fields)
	Error(ctx context.Context, msg string, f Fields)
}

type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) Debug(context.Context, string, Fields) {}
func (NopLogger) Info(context.Context, string, Fields)  {}
func (NopLogger) Warn(context.Context, string, Fields)  {}
func (NopLogger) Error(context.Context, string, Fields) {}
