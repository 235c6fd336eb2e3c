package batchctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithBatchID returns a context carrying the given batch correlation ID.
func WithBatchID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// NewBatch attaches a fresh batch ID to ctx and returns both.
func NewBatch(ctx context.Context) (context.Context, uuid.UUID) {
	id := uuid.New()
	return WithBatchID(ctx, id), id
}

// BatchIDFromContext extracts the batch ID, if any.
func BatchIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
