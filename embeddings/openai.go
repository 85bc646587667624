package embeddings

import (
	"context"
	"fmt"

	"github.com/fogfish/opts"
	"github.com/loomkit/loom/events"
	"github.com/loomkit/loom/instrument"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// embedTrace instruments every embedding invocation, regardless of
// which backing model performs it.
var embedTrace = &instrument.Trace[[]string, [][]float64]{
	Kind: events.KindEmbedding,
	BeginPayload: func(owner any, in []string) events.Payload {
		return events.Payload{
			events.KeyChunks:     in,
			events.KeySerialized: map[string]any{"type": fmt.Sprintf("%T", owner)},
		}
	},
	EndPayload: func(in []string, last [][]float64, produced bool) events.Payload {
		if !produced {
			return events.Payload{events.KeyEmbeddings: nil}
		}
		return events.Payload{
			events.KeyChunks:     in,
			events.KeyEmbeddings: last,
		}
	},
}

var embedOp = embedTrace.Scalar(rawEmbed)

var _ Embedder = (*OpenAI)(nil)

var _ events.Observable = (*OpenAI)(nil)

// OpenAI embeds text through the OpenAI embeddings API.
type OpenAI struct {
	model       string
	sink        events.Sink
	requestOpts []option.RequestOption
	client      *openai.Client
}

var (
	// WithModel selects the embedding model. Defaults to
	// text-embedding-3-small.
	WithModel = opts.ForName[OpenAI, string]("model")

	// WithSink sets the event sink receiving the embedding event pairs.
	WithSink = opts.ForName[OpenAI, events.Sink]("sink")
)

// WithRequestOptions forwards client options to the underlying SDK.
func WithRequestOptions(options ...option.RequestOption) opts.Option[OpenAI] {
	return opts.Type[OpenAI](func(e *OpenAI) error {
		e.requestOpts = append(e.requestOpts, options...)
		return nil
	})
}

// NewOpenAI constructs an OpenAI embedder. Configuration errors panic.
func NewOpenAI(options ...opts.Option[OpenAI]) *OpenAI {
	e := &OpenAI{model: string(openai.EmbeddingModelTextEmbedding3Small)}
	if err := opts.Apply(e, options); err != nil {
		panic(err)
	}
	e.client = openai.NewClient(e.requestOpts...)
	return e
}

// EventSink implements events.Observable.
func (e *OpenAI) EventSink() events.Sink { return e.sink }

// Embed implements Embedder. Each call emits one embedding event pair.
func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return embedOp(ctx, e, texts)
}

func rawEmbed(ctx context.Context, owner any, texts []string) ([][]float64, error) {
	e, ok := owner.(*OpenAI)
	if !ok {
		return nil, fmt.Errorf("embeddings: operation bound to %T, want *OpenAI", owner)
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](
			openai.EmbeddingNewParamsInputArrayOfStrings(texts),
		),
		Model: openai.F(openai.EmbeddingModel(e.model)),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vecs := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
