package instrument

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/loomkit/loom/events"
	"github.com/loomkit/loom/pkg/uuidx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrace() *Trace[string, string] {
	return &Trace[string, string]{
		Kind: events.KindLLM,
		BeginPayload: func(_ any, in string) events.Payload {
			return events.Payload{events.KeyPrompt: in}
		},
		EndPayload: func(_ string, last string, produced bool) events.Payload {
			if !produced {
				return events.Payload{events.KeyCompletion: nil}
			}
			return events.Payload{events.KeyCompletion: last}
		},
	}
}

type testHost struct {
	sink events.Sink
}

func (h *testHost) EventSink() events.Sink { return h.sink }

func newHost() (*testHost, *events.Recorder) {
	rec := events.NewRecorder()
	return &testHost{sink: events.NewManager(rec)}, rec
}

type faultySink struct {
	beginErr error
	endErr   error
	begun    int
}

func (f *faultySink) Begin(context.Context, events.Kind, events.Payload) (uuid.UUID, error) {
	if f.beginErr != nil {
		return uuid.Nil, f.beginErr
	}
	f.begun++
	return uuidx.New(), nil
}

func (f *faultySink) End(context.Context, events.Kind, events.Payload, uuid.UUID) error {
	return f.endErr
}

// requirePair asserts exactly one start and one end with the same
// correlation identifier.
func requirePair(t *testing.T, rec *events.Recorder) (events.Record, events.Record) {
	t.Helper()
	started := rec.Started()
	ended := rec.Ended()
	require.Len(t, started, 1)
	require.Len(t, ended, 1)
	require.Equal(t, started[0].ID, ended[0].ID)
	require.NotEqual(t, uuid.Nil, started[0].ID)
	return started[0], ended[0]
}

func TestScalarEmitsOnePair(t *testing.T) {
	op := testTrace().Scalar(func(_ context.Context, _ any, in string) (string, error) {
		return "ok", nil
	})
	host, rec := newHost()

	out, err := op(context.Background(), host, "say ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	start, end := requirePair(t, rec)
	assert.Equal(t, events.KindLLM, start.Kind)
	assert.Equal(t, "say ok", start.Payload[events.KeyPrompt])
	assert.Equal(t, "ok", end.Payload[events.KeyCompletion])
}

func TestScalarFailureEmitsNoEnd(t *testing.T) {
	boom := errors.New("upstream exploded")
	op := testTrace().Scalar(func(context.Context, any, string) (string, error) {
		return "", boom
	})
	host, rec := newHost()

	_, err := op(context.Background(), host, "in")
	require.ErrorIs(t, err, boom)

	assert.Len(t, rec.Started(), 1, "begin fires before the failure")
	assert.Empty(t, rec.Ended(), "no end on failure")
}

func TestScalarOwnerWithoutSink(t *testing.T) {
	op := testTrace().Scalar(func(context.Context, any, string) (string, error) {
		t.Fatal("underlying operation must not run")
		return "", nil
	})

	t.Run("owner is not observable", func(t *testing.T) {
		_, err := op(context.Background(), struct{}{}, "in")
		require.ErrorIs(t, err, ErrNoSink)
	})

	t.Run("owner exposes a nil sink", func(t *testing.T) {
		_, err := op(context.Background(), &testHost{}, "in")
		require.ErrorIs(t, err, ErrNoSink)
	})
}

func TestScalarSinkFailures(t *testing.T) {
	boom := errors.New("sink rejected")

	t.Run("begin failure aborts the call", func(t *testing.T) {
		ran := false
		op := testTrace().Scalar(func(context.Context, any, string) (string, error) {
			ran = true
			return "ok", nil
		})
		sink := &faultySink{beginErr: boom}

		_, err := op(context.Background(), &testHost{sink: sink}, "in")
		require.ErrorIs(t, err, boom)
		assert.False(t, ran)
	})

	t.Run("end failure propagates after the work", func(t *testing.T) {
		op := testTrace().Scalar(func(context.Context, any, string) (string, error) {
			return "ok", nil
		})
		sink := &faultySink{endErr: boom}

		_, err := op(context.Background(), &testHost{sink: sink}, "in")
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, sink.begun)
	})
}

// yieldAll adapts a slice to an iter.Seq2 with nil errors. The operation
// closures below are deliberately written out per test: the idempotency
// guard keys on the code pointer of the function literal, so minting ops
// from one shared factory literal would make them all look identical.
func yieldAll(items []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func feedAll(items []string) <-chan Item[string] {
	ch := make(chan Item[string])
	go func() {
		defer close(ch)
		for _, item := range items {
			ch <- Item[string]{Value: item}
		}
	}()
	return ch
}

func TestStreamEndReflectsLastItem(t *testing.T) {
	op := testTrace().Stream(func(context.Context, any, string) (iter.Seq2[string, error], error) {
		return yieldAll([]string{"a", "b", "c"}), nil
	})
	host, rec := newHost()

	seq, err := op(context.Background(), host, "in")
	require.NoError(t, err)

	var got []string
	for v, err := range seq {
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)

	_, end := requirePair(t, rec)
	assert.Equal(t, "c", end.Payload[events.KeyCompletion])
}

func TestStreamEmptySequence(t *testing.T) {
	op := testTrace().Stream(func(context.Context, any, string) (iter.Seq2[string, error], error) {
		return yieldAll(nil), nil
	})
	host, rec := newHost()

	seq, err := op(context.Background(), host, "in")
	require.NoError(t, err)
	for range seq {
		t.Fatal("empty sequence must not yield")
	}

	_, end := requirePair(t, rec)
	assert.Nil(t, end.Payload[events.KeyCompletion])
}

func TestStreamAbandonedEmitsNoEnd(t *testing.T) {
	op := testTrace().Stream(func(context.Context, any, string) (iter.Seq2[string, error], error) {
		return yieldAll([]string{"a", "b", "c"}), nil
	})
	host, rec := newHost()

	seq, err := op(context.Background(), host, "in")
	require.NoError(t, err)

	for v, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "a", v)
		break
	}

	assert.Len(t, rec.Started(), 1)
	assert.Empty(t, rec.Ended(), "abandoning the stream suppresses the end event")
}

func TestStreamProductionFailure(t *testing.T) {
	boom := errors.New("mid-stream failure")
	op := testTrace().Stream(func(context.Context, any, string) (iter.Seq2[string, error], error) {
		return func(yield func(string, error) bool) {
			if !yield("a", nil) {
				return
			}
			yield("", boom)
		}, nil
	})
	host, rec := newHost()

	seq, err := op(context.Background(), host, "in")
	require.NoError(t, err)

	var sawItem, sawErr bool
	for v, err := range seq {
		if err != nil {
			require.ErrorIs(t, err, boom)
			sawErr = true
			continue
		}
		assert.Equal(t, "a", v)
		sawItem = true
	}
	assert.True(t, sawItem)
	assert.True(t, sawErr)

	assert.Len(t, rec.Started(), 1)
	assert.Empty(t, rec.Ended(), "no end after a production failure")
}

func TestStreamOpFailsBeforeStreaming(t *testing.T) {
	boom := errors.New("no stream for you")
	op := testTrace().Stream(func(context.Context, any, string) (iter.Seq2[string, error], error) {
		return nil, boom
	})
	host, rec := newHost()

	_, err := op(context.Background(), host, "in")
	require.ErrorIs(t, err, boom)
	assert.Len(t, rec.Started(), 1)
	assert.Empty(t, rec.Ended())
}

func TestFutureEmitsOnePair(t *testing.T) {
	op := testTrace().Future(func(_ context.Context, _ any, in string) *Future[string] {
		return Go(func() (string, error) { return in + "!", nil })
	})
	host, rec := newHost()

	out, err := op(context.Background(), host, "hello").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello!", out)

	_, end := requirePair(t, rec)
	assert.Equal(t, "hello!", end.Payload[events.KeyCompletion])
}

func TestFutureFailureEmitsNoEnd(t *testing.T) {
	boom := errors.New("async failure")
	op := testTrace().Future(func(context.Context, any, string) *Future[string] {
		return Failed[string](boom)
	})
	host, rec := newHost()

	_, err := op(context.Background(), host, "in").Await(context.Background())
	require.ErrorIs(t, err, boom)

	assert.Len(t, rec.Started(), 1)
	assert.Empty(t, rec.Ended())
}

func TestChannelForwardsInOrder(t *testing.T) {
	op := testTrace().Channel(func(context.Context, any, string) (<-chan Item[string], error) {
		return feedAll([]string{"a", "ab", "abc"}), nil
	})
	host, rec := newHost()

	ch, err := op(context.Background(), host, "in")
	require.NoError(t, err)

	var got []string
	for item := range ch {
		require.NoError(t, item.Err)
		got = append(got, item.Value)
	}
	assert.Equal(t, []string{"a", "ab", "abc"}, got)

	_, end := requirePair(t, rec)
	assert.Equal(t, "abc", end.Payload[events.KeyCompletion])
}

func TestChannelEmptyStream(t *testing.T) {
	op := testTrace().Channel(func(context.Context, any, string) (<-chan Item[string], error) {
		return feedAll(nil), nil
	})
	host, rec := newHost()

	ch, err := op(context.Background(), host, "in")
	require.NoError(t, err)
	for range ch {
		t.Fatal("empty stream must not produce items")
	}

	_, end := requirePair(t, rec)
	assert.Nil(t, end.Payload[events.KeyCompletion])
}

func TestChannelAbandonedByCancellation(t *testing.T) {
	op := testTrace().Channel(func(context.Context, any, string) (<-chan Item[string], error) {
		return feedAll([]string{"a", "b", "c"}), nil
	})
	host, rec := newHost()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := op(ctx, host, "in")
	require.NoError(t, err)

	first := <-ch
	require.NoError(t, first.Err)
	assert.Equal(t, "a", first.Value)
	cancel()

	// drain until the forwarder shuts down
	for range ch { //nolint:revive
	}

	assert.Len(t, rec.Started(), 1)
	assert.Empty(t, rec.Ended(), "cancelled stream never completes")
}

func TestChannelProductionFailure(t *testing.T) {
	boom := errors.New("stream blew up")
	op := testTrace().Channel(func(context.Context, any, string) (<-chan Item[string], error) {
		ch := make(chan Item[string])
		go func() {
			defer close(ch)
			ch <- Item[string]{Value: "a"}
			ch <- Item[string]{Err: boom}
		}()
		return ch, nil
	})
	host, rec := newHost()

	ch, err := op(context.Background(), host, "in")
	require.NoError(t, err)

	var sawErr bool
	for item := range ch {
		if item.Err != nil {
			require.ErrorIs(t, item.Err, boom)
			sawErr = true
		}
	}
	require.True(t, sawErr)

	assert.Len(t, rec.Started(), 1)
	assert.Empty(t, rec.Ended())
}

func TestDoubleWrapIsIdempotent(t *testing.T) {
	tr := testTrace()
	base := ScalarFunc[string, string](func(context.Context, any, string) (string, error) {
		return "once", nil
	})

	once := tr.Scalar(base)
	twice := tr.Scalar(once)
	host, rec := newHost()

	out, err := twice(context.Background(), host, "in")
	require.NoError(t, err)
	assert.Equal(t, "once", out)

	requirePair(t, rec)
	assert.Equal(t, 2, rec.Len(), "exactly one pair despite double wrapping")
}

func TestRewrappingMarkedOperationIsPassThrough(t *testing.T) {
	tr := testTrace()
	base := ScalarFunc[string, string](func(context.Context, any, string) (string, error) {
		return "raw", nil
	})

	wrapped := tr.Scalar(base)
	assert.True(t, Wrapped(wrapped))
	assert.True(t, Wrapped(base), "the input is marked as managed too")

	again := tr.Scalar(base)
	host, rec := newHost()
	out, err := again(context.Background(), host, "in")
	require.NoError(t, err)
	assert.Equal(t, "raw", out)
	assert.Zero(t, rec.Len(), "re-wrapping a marked operation adds no instrumentation")
}

func TestConcurrentInvocationsGetDistinctCorrelations(t *testing.T) {
	const parallel = 100

	op := testTrace().Scalar(func(_ context.Context, _ any, in string) (string, error) {
		return in, nil
	})
	host, rec := newHost()

	var wg sync.WaitGroup
	wg.Add(parallel)
	for i := 0; i < parallel; i++ {
		go func(i int) {
			defer wg.Done()
			out, err := op(context.Background(), host, fmt.Sprintf("call-%d", i))
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("call-%d", i), out)
		}(i)
	}
	wg.Wait()

	started := rec.Started()
	ended := rec.Ended()
	require.Len(t, started, parallel)
	require.Len(t, ended, parallel)

	seen := make(map[uuid.UUID]bool, parallel)
	for _, rec := range started {
		assert.False(t, seen[rec.ID], "correlation identifiers must be unique")
		seen[rec.ID] = true
	}
	for _, rec := range ended {
		assert.True(t, seen[rec.ID], "every end pairs with its own begin")
	}
}

func TestWrapDispatchesAllShapes(t *testing.T) {
	host, rec := newHost()
	ctx := context.Background()

	t.Run("sync-scalar", func(t *testing.T) {
		rec.Reset()
		wrapped, err := Wrap(testTrace(), func(context.Context, any, string) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)

		op := wrapped.(ScalarFunc[string, string])
		out, err := op(ctx, host, "in")
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		requirePair(t, rec)
	})

	t.Run("sync-streaming", func(t *testing.T) {
		rec.Reset()
		wrapped, err := Wrap[string, string](testTrace(), func(context.Context, any, string) (iter.Seq2[string, error], error) {
			return yieldAll([]string{"x", "y"}), nil
		})
		require.NoError(t, err)

		op := wrapped.(StreamFunc[string, string])
		seq, err := op(ctx, host, "in")
		require.NoError(t, err)
		for _, err := range seq {
			require.NoError(t, err)
		}
		_, end := requirePair(t, rec)
		assert.Equal(t, "y", end.Payload[events.KeyCompletion])
	})

	t.Run("async-scalar", func(t *testing.T) {
		rec.Reset()
		wrapped, err := Wrap(testTrace(), func(context.Context, any, string) *Future[string] {
			return Resolved("later")
		})
		require.NoError(t, err)

		op := wrapped.(FutureFunc[string, string])
		out, err := op(ctx, host, "in").Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "later", out)
		requirePair(t, rec)
	})

	t.Run("async-streaming", func(t *testing.T) {
		rec.Reset()
		wrapped, err := Wrap[string, string](testTrace(), func(context.Context, any, string) (<-chan Item[string], error) {
			return feedAll([]string{"z"}), nil
		})
		require.NoError(t, err)

		op := wrapped.(ChannelFunc[string, string])
		ch, err := op(ctx, host, "in")
		require.NoError(t, err)
		for item := range ch {
			require.NoError(t, item.Err)
		}
		_, end := requirePair(t, rec)
		assert.Equal(t, "z", end.Payload[events.KeyCompletion])
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := Wrap(testTrace(), func(context.Context, any, int) (int, error) {
			return 0, nil
		})
		require.ErrorIs(t, err, ErrShape)
	})

	t.Run("not a function", func(t *testing.T) {
		_, err := Wrap[string, string](testTrace(), 42)
		require.ErrorIs(t, err, ErrNotFunction)
	})
}
