package logging

import (
	"context"
	"maps"
)

type metaContextKey struct{}

// MetaFromContext returns a copy of the fields attached to ctx
func MetaFromContext(ctx context.Context) Fields {
	meta, ok := ctx.Value(metaContextKey{}).(Fields)
	if !ok {
		return Fields{}
	}
	return maps.Clone(meta)
}

// AddMetaToContext attaches fields that every Logger adapter adds to records logged with ctx
func AddMetaToContext(ctx context.Context, f Fields) context.Context {
	meta := MetaFromContext(ctx)
	maps.Copy(meta, f)

	return context.WithValue(ctx, metaContextKey{}, meta)
}

// withMeta merges the context fields with f, preferring f
func withMeta(ctx context.Context, f Fields) Fields {
	meta := MetaFromContext(ctx)
	maps.Copy(meta, f)
	return meta
}
