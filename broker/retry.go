package broker

import (
	"context"
	"errors"
)

// RetrySink wraps an ExecutionSink and retries a failed call exactly once.
// A second failure is returned to the caller, which skips the decision for
// the current bar. Only ErrExecutionFailure is retried; anything else is
// passed straight through.
type RetrySink struct {
	Sink ExecutionSink
}

func (r RetrySink) Open(ctx context.Context, req OrderRequest) (Fill, error) {
	fill, err := r.Sink.Open(ctx, req)
	if errors.Is(err, ErrExecutionFailure) {
		fill, err = r.Sink.Open(ctx, req)
	}
	return fill, err
}

func (r RetrySink) Close(ctx context.Context, tradeID, reason string) (Fill, error) {
	fill, err := r.Sink.Close(ctx, tradeID, reason)
	if errors.Is(err, ErrExecutionFailure) {
		fill, err = r.Sink.Close(ctx, tradeID, reason)
	}
	return fill, err
}
