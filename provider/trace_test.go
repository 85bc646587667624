package provider

import (
	"context"
	"testing"

	"github.com/loomkit/loom/events"
	"github.com/loomkit/loom/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	sink events.Sink
	md   Metadata
}

func (m *fakeModel) EventSink() events.Sink { return m.sink }
func (m *fakeModel) Metadata() Metadata     { return m.md }

func newFakeModel() (*fakeModel, *events.Recorder) {
	rec := events.NewRecorder()
	return &fakeModel{
		sink: events.NewManager(rec),
		md:   NewMetadata("test-model"),
	}, rec
}

func TestChatTracePayloads(t *testing.T) {
	op := ChatTrace.Scalar(func(_ context.Context, _ any, in ChatRequest) (ChatResponse, error) {
		return ChatResponse{Message: messages.Assistant("hello there")}, nil
	})
	model, rec := newFakeModel()

	msgs := []messages.ChatMessage{messages.User("hi")}
	options, err := NewCallOptions(WithTemperature(0.2), WithMaxTokens(128))
	require.NoError(t, err)

	out, err := op(context.Background(), model, ChatRequest{Messages: msgs, Options: options})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out.Message.Content)

	started := rec.Started()
	require.Len(t, started, 1)
	assert.Equal(t, events.KindLLM, started[0].Kind)
	assert.Equal(t, msgs, started[0].Payload[events.KeyMessages])
	assert.Equal(t, options, started[0].Payload[events.KeyOptions])

	desc, ok := started[0].Payload[events.KeySerialized].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test-model", desc["model"])
	assert.Equal(t, DefaultContextWindow, desc["context_window"])
	assert.Equal(t, DefaultNumOutput, desc["num_output"])

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, started[0].ID, ended[0].ID)
	assert.Equal(t, out, ended[0].Payload[events.KeyResponse])
}

func TestCompletionTracePayloads(t *testing.T) {
	op := CompletionTrace.Scalar(func(_ context.Context, _ any, in CompletionRequest) (CompletionResponse, error) {
		return CompletionResponse{Text: "done"}, nil
	})
	model, rec := newFakeModel()

	out, err := op(context.Background(), model, CompletionRequest{Prompt: "finish this"})
	require.NoError(t, err)
	assert.Equal(t, "done", out.Text)

	started := rec.Started()
	require.Len(t, started, 1)
	assert.Equal(t, "finish this", started[0].Payload[events.KeyPrompt])

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, out, ended[0].Payload[events.KeyCompletion])
}

func TestCompletionTraceEmptyStream(t *testing.T) {
	op := CompletionTrace.Stream(func(context.Context, any, CompletionRequest) (CompletionStream, error) {
		return func(func(CompletionResponse, error) bool) {}, nil
	})
	model, rec := newFakeModel()

	seq, err := op(context.Background(), model, CompletionRequest{Prompt: "silence"})
	require.NoError(t, err)
	for range seq {
		t.Fatal("stream should be empty")
	}

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Nil(t, ended[0].Payload[events.KeyCompletion])
}

func TestDescribePlainOwner(t *testing.T) {
	desc := describe(struct{}{})
	assert.Equal(t, "struct {}", desc["type"])
	assert.NotContains(t, desc, "model")
}

func TestNewCallOptions(t *testing.T) {
	options, err := NewCallOptions(
		WithTemperature(0.7),
		WithMaxTokens(512),
		WithExtra("top_p", 0.9),
		WithExtra("seed", 42),
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, options.Temperature, 1e-9)
	assert.Equal(t, 512, options.MaxTokens)
	assert.Equal(t, map[string]any{"top_p": 0.9, "seed": 42}, options.Extra)
	assert.Nil(t, options.Schema)
}
