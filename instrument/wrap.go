package instrument

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/loomkit/loom/events"
	"github.com/loomkit/loom/pkg/reflectx"
	"github.com/loomkit/loom/pkg/stdx"
)

// ErrNoSink is the configuration error for owners that do not expose a
// conforming event sink. It surfaces at first call, not at wrap time,
// because the owner instance is only bound at the call.
var ErrNoSink = errors.New("instrument: owner does not expose an event sink")

// The four canonical operation signatures, one per Shape.
type (
	ScalarFunc[In, Out any]  func(ctx context.Context, owner any, in In) (Out, error)
	StreamFunc[In, Out any]  func(ctx context.Context, owner any, in In) (iter.Seq2[Out, error], error)
	FutureFunc[In, Out any]  func(ctx context.Context, owner any, in In) *Future[Out]
	ChannelFunc[In, Out any] func(ctx context.Context, owner any, in In) (<-chan Item[Out], error)
)

// Trace is a payload profile: the event kind plus the builders for begin
// and end payloads. One Trace instruments any number of operations that
// share input and output types.
type Trace[In, Out any] struct {
	// Kind tags every event pair this trace emits. Fixed at wrap time.
	Kind events.Kind

	// BeginPayload builds the begin payload from the owner and the inputs.
	// Nil means an empty payload.
	BeginPayload func(owner any, in In) events.Payload

	// EndPayload builds the end payload from the inputs and the result.
	// For streaming shapes last is the final item seen; produced is false
	// when the sequence finished without yielding anything.
	EndPayload func(in In, last Out, produced bool) events.Payload
}

func sinkFor(owner any) (events.Sink, error) {
	obs, ok := owner.(events.Observable)
	if !ok || obs.EventSink() == nil {
		return nil, fmt.Errorf("%w: %T", ErrNoSink, owner)
	}
	return obs.EventSink(), nil
}

func (t *Trace[In, Out]) begin(ctx context.Context, owner any, in In) (events.Sink, uuid.UUID, error) {
	sink, err := sinkFor(owner)
	if err != nil {
		return nil, uuid.Nil, err
	}
	payload := events.Payload{}
	if t.BeginPayload != nil {
		payload = t.BeginPayload(owner, in)
	}
	id, err := sink.Begin(ctx, t.Kind, payload)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return sink, id, nil
}

func (t *Trace[In, Out]) end(ctx context.Context, sink events.Sink, in In, last Out, produced bool, id uuid.UUID) error {
	payload := events.Payload{}
	if t.EndPayload != nil {
		payload = t.EndPayload(in, last, produced)
	}
	return sink.End(ctx, t.Kind, payload, id)
}

// Scalar wraps a sync-scalar operation. The end event fires once the
// result is available, before it is returned to the caller.
func (t *Trace[In, Out]) Scalar(op ScalarFunc[In, Out]) ScalarFunc[In, Out] {
	if Wrapped(op) {
		return op
	}
	wrapped := ScalarFunc[In, Out](func(ctx context.Context, owner any, in In) (Out, error) {
		sink, id, err := t.begin(ctx, owner, in)
		if err != nil {
			return stdx.Zero[Out](), err
		}
		out, err := op(ctx, owner, in)
		if err != nil {
			return out, err
		}
		if err := t.end(ctx, sink, in, out, true, id); err != nil {
			return stdx.Zero[Out](), err
		}
		return out, nil
	})
	markWrapped(op, wrapped)
	return wrapped
}

// Stream wraps a sync-streaming operation. The returned sequence forwards
// each item to the consumer before tracking it, and emits the end event
// only when the underlying sequence is exhausted. Breaking out of the
// sequence abandons it: no end event. An error item latches the failed
// state, which also suppresses the end event.
func (t *Trace[In, Out]) Stream(op StreamFunc[In, Out]) StreamFunc[In, Out] {
	if Wrapped(op) {
		return op
	}
	wrapped := StreamFunc[In, Out](func(ctx context.Context, owner any, in In) (iter.Seq2[Out, error], error) {
		sink, id, err := t.begin(ctx, owner, in)
		if err != nil {
			return nil, err
		}
		seq, err := op(ctx, owner, in)
		if err != nil {
			return seq, err
		}
		return func(yield func(Out, error) bool) {
			var last Out
			var produced, failed bool
			for v, err := range seq {
				if !yield(v, err) {
					return
				}
				if err != nil {
					failed = true
					continue
				}
				last, produced = v, true
			}
			if failed {
				return
			}
			if err := t.end(ctx, sink, in, last, produced, id); err != nil {
				yield(stdx.Zero[Out](), err)
			}
		}, nil
	})
	markWrapped(op, wrapped)
	return wrapped
}

// Future wraps an async-scalar operation. The returned future resolves
// with the underlying result after the end event has been emitted; a sink
// failure on end resolves the future with that failure instead.
func (t *Trace[In, Out]) Future(op FutureFunc[In, Out]) FutureFunc[In, Out] {
	if Wrapped(op) {
		return op
	}
	wrapped := FutureFunc[In, Out](func(ctx context.Context, owner any, in In) *Future[Out] {
		sink, id, err := t.begin(ctx, owner, in)
		if err != nil {
			return Failed[Out](err)
		}
		inner := op(ctx, owner, in)
		return Go(func() (Out, error) {
			out, err := inner.Await(ctx)
			if err != nil {
				return out, err
			}
			if err := t.end(ctx, sink, in, out, true, id); err != nil {
				return stdx.Zero[Out](), err
			}
			return out, nil
		})
	})
	markWrapped(op, wrapped)
	return wrapped
}

// Channel wraps an async-streaming operation. Items are forwarded on an
// unbuffered channel so the consumer's pace is preserved; when ctx is
// cancelled mid-stream the invocation counts as abandoned and no end
// event fires.
func (t *Trace[In, Out]) Channel(op ChannelFunc[In, Out]) ChannelFunc[In, Out] {
	if Wrapped(op) {
		return op
	}
	wrapped := ChannelFunc[In, Out](func(ctx context.Context, owner any, in In) (<-chan Item[Out], error) {
		sink, id, err := t.begin(ctx, owner, in)
		if err != nil {
			return nil, err
		}
		inner, err := op(ctx, owner, in)
		if err != nil {
			return inner, err
		}
		out := make(chan Item[Out])
		go func() {
			defer close(out)
			var last Out
			var produced, failed bool
			for item := range inner {
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
				if item.Err != nil {
					failed = true
					continue
				}
				last, produced = item.Value, true
			}
			if failed || ctx.Err() != nil {
				return
			}
			if err := t.end(ctx, sink, in, last, produced, id); err != nil {
				select {
				case out <- Item[Out]{Err: err}:
				case <-ctx.Done():
				}
			}
		}()
		return out, nil
	})
	markWrapped(op, wrapped)
	return wrapped
}

// Wrap classifies op and dispatches to the matching Trace method. The
// returned operation has the same dynamic signature as op. Callers that
// already know the shape can use the typed methods directly.
func Wrap[In, Out any](t *Trace[In, Out], op any) (any, error) {
	shape, err := Classify(op)
	if err != nil {
		return nil, err
	}
	switch shape {
	case SyncScalar:
		switch fn := op.(type) {
		case ScalarFunc[In, Out]:
			return t.Scalar(fn), nil
		case func(context.Context, any, In) (Out, error):
			return t.Scalar(fn), nil
		}
	case SyncStream:
		switch fn := op.(type) {
		case StreamFunc[In, Out]:
			return t.Stream(fn), nil
		case func(context.Context, any, In) (iter.Seq2[Out, error], error):
			return t.Stream(fn), nil
		}
	case AsyncScalar:
		switch fn := op.(type) {
		case FutureFunc[In, Out]:
			return t.Future(fn), nil
		case func(context.Context, any, In) *Future[Out]:
			return t.Future(fn), nil
		}
	case AsyncStream:
		switch fn := op.(type) {
		case ChannelFunc[In, Out]:
			return t.Channel(fn), nil
		case func(context.Context, any, In) (<-chan Item[Out], error):
			return t.Channel(fn), nil
		}
	}
	return nil, mismatch(op, shape)
}

func mismatch(op any, shape Shape) error {
	return fmt.Errorf("%w: %s classified as %s but does not match the trace types",
		ErrShape, reflectx.FunctionName(op), shape)
}
