package reporting

import (
	"context"
	"maps"
	"time"
)

type reportingMetaContextKey struct{}

// ReportingMeta is the request scoped data attached to every report.
// requestKey and batchID are reported as tags so events can be grouped by request and batch.
type ReportingMeta struct {
	requestKey string
	batchID    string
	extras     map[string]string
	startedAt  time.Time
}

func MetaFromContext(ctx context.Context) ReportingMeta {
	meta, ok := ctx.Value(reportingMetaContextKey{}).(ReportingMeta)
	if !ok {
		return ReportingMeta{extras: make(map[string]string)}
	}
	meta.extras = maps.Clone(meta.extras)
	return meta
}

func (m ReportingMeta) tags() map[string]string {
	tags := make(map[string]string, 2)
	if m.requestKey != "" {
		tags["key"] = m.requestKey
	}
	if m.batchID != "" {
		tags["batchID"] = m.batchID
	}
	return tags
}

func addMetaToContext(ctx context.Context, meta ReportingMeta) context.Context {
	return context.WithValue(ctx, reportingMetaContextKey{}, meta)
}

func SetRequestKeyInContext(ctx context.Context, requestKey string) context.Context {
	meta := MetaFromContext(ctx)
	meta.requestKey = requestKey

	return addMetaToContext(ctx, meta)
}

func SetBatchIDInContext(ctx context.Context, batchID string) context.Context {
	meta := MetaFromContext(ctx)
	meta.batchID = batchID

	return addMetaToContext(ctx, meta)
}

// SetStartedAtInContext marks the start of the unit of work, reported as secondsSinceStart
func SetStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	meta := MetaFromContext(ctx)
	meta.startedAt = startedAt

	return addMetaToContext(ctx, meta)
}

func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	meta := MetaFromContext(ctx)

	maps.Copy(meta.extras, extras)

	return addMetaToContext(ctx, meta)
}
