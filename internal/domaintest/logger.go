package domaintest

import (
	"context"
	"maps"
	"sync"

	"github.com/Amund211/fetchcache/internal/logging"
)

type LogRecord struct {
	Level  string
	Msg    string
	Fields logging.Fields
}

// RecordingLogger stores every record, including the meta from the context
type RecordingLogger struct {
	mu      sync.Mutex
	records []LogRecord
}

var _ logging.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) record(ctx context.Context, level, msg string, f logging.Fields) {
	fields := logging.MetaFromContext(ctx)
	maps.Copy(fields, f)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, LogRecord{Level: level, Msg: msg, Fields: fields})
}

func (l *RecordingLogger) Debug(ctx context.Context, msg string, f logging.Fields) {
	l.record(ctx, "debug", msg, f)
}

func (l *RecordingLogger) Info(ctx context.Context, msg string, f logging.Fields) {
	l.record(ctx, "info", msg, f)
}

func (l *RecordingLogger) Warn(ctx context.Context, msg string, f logging.Fields) {
	l.record(ctx, "warn", msg, f)
}

func (l *RecordingLogger) Error(ctx context.Context, msg string, f logging.Fields) {
	l.record(ctx, "error", msg, f)
}

func (l *RecordingLogger) Records() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogRecord(nil), l.records...)
}

// ByLevel returns the records logged at level
func (l *RecordingLogger) ByLevel(level string) []LogRecord {
	var out []LogRecord
	for _, r := range l.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

func (l *RecordingLogger) ByMsg(msg string) []LogRecord {
	var out []LogRecord
	for _, r := range l.Records() {
		if r.Msg == msg {
			out = append(out, r)
		}
	}
	return out
}
