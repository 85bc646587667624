package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct {
	startErr error
	endErr   error
}

func (f *failingHandler) OnStart(context.Context, Kind, Payload, uuid.UUID) error {
	return f.startErr
}

func (f *failingHandler) OnEnd(context.Context, Kind, Payload, uuid.UUID) error {
	return f.endErr
}

func TestManagerAssignsDistinctCorrelations(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	a, err := m.Begin(ctx, KindLLM, Payload{KeyPrompt: "one"})
	require.NoError(t, err)
	b, err := m.Begin(ctx, KindLLM, Payload{KeyPrompt: "two"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a)
	assert.NotEqual(t, uuid.Nil, b)
	assert.NotEqual(t, a, b)

	assert.NoError(t, m.End(ctx, KindLLM, Payload{}, a))
	assert.NoError(t, m.End(ctx, KindLLM, Payload{}, b))
}

func TestManagerBroadcastsInOrder(t *testing.T) {
	first := NewRecorder()
	second := NewRecorder()
	m := NewManager(first, second)
	ctx := context.Background()

	id, err := m.Begin(ctx, KindEmbedding, Payload{KeyTexts: []string{"a"}})
	require.NoError(t, err)
	require.NoError(t, m.End(ctx, KindEmbedding, Payload{KeyChunks: 1}, id))

	for _, rec := range []*Recorder{first, second} {
		require.Equal(t, 2, rec.Len())
		started := rec.Started()
		ended := rec.Ended()
		require.Len(t, started, 1)
		require.Len(t, ended, 1)
		assert.Equal(t, id, started[0].ID)
		assert.Equal(t, id, ended[0].ID)
		assert.Equal(t, KindEmbedding, started[0].Kind)
	}
}

func TestManagerPropagatesHandlerFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("on start", func(t *testing.T) {
		after := NewRecorder()
		m := NewManager(&failingHandler{startErr: boom}, after)

		id, err := m.Begin(context.Background(), KindLLM, Payload{})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, uuid.Nil, id)
		assert.Zero(t, after.Len(), "handlers after the failure must not run")
	})

	t.Run("on end", func(t *testing.T) {
		m := NewManager(&failingHandler{endErr: boom})
		err := m.End(context.Background(), KindLLM, Payload{}, uuid.New())
		require.ErrorIs(t, err, boom)
	})
}

func TestRecorderIsolation(t *testing.T) {
	rec := NewRecorder()
	require.NoError(t, rec.OnStart(context.Background(), KindLLM, Payload{KeyPrompt: "p"}, uuid.New()))

	records := rec.Records()
	require.Len(t, records, 1)

	// mutating the returned slice must not affect the recorder
	records[0].Kind = KindRerank
	assert.Equal(t, KindLLM, rec.Records()[0].Kind)

	rec.Reset()
	assert.Zero(t, rec.Len())
}
