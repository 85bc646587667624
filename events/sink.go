package events

import (
	"context"

	"github.com/google/uuid"
)

// Kind tags the category of operation an event pair describes.
type Kind string

const (
	// KindLLM marks chat and completion model invocations.
	KindLLM Kind = "llm"
	// KindEmbedding marks text embedding invocations.
	KindEmbedding Kind = "embedding"
	// KindRerank marks relevance reranking invocations.
	KindRerank Kind = "rerank"
)

// Payload carries the fields of a begin or end event. It is built fresh
// for every call and is not retained by the instrumentation core.
type Payload map[string]any

// Well-known payload keys. Begin payloads carry the invocation inputs and
// a serialized descriptor of the owning object; end payloads carry the
// result, or the last streamed partial for streaming invocations.
const (
	KeyMessages   = "messages"
	KeyPrompt     = "prompt"
	KeyOptions    = "options"
	KeySerialized = "serialized"
	KeyResponse   = "response"
	KeyCompletion = "completion"
	KeyTexts      = "texts"
	KeyChunks     = "chunks"
	KeyEmbeddings = "embeddings"
	KeyQuery      = "query"
	KeyNodes      = "nodes"
)

// Sink receives the begin/end lifecycle calls emitted around instrumented
// operations. Begin returns the correlation identifier that the matching
// End call must receive unchanged. Implementations own thread safety;
// concurrent invocations call Begin and End without external locking.
type Sink interface {
	Begin(ctx context.Context, kind Kind, payload Payload) (uuid.UUID, error)
	End(ctx context.Context, kind Kind, payload Payload, id uuid.UUID) error
}

// Observable is implemented by objects that own instrumented operations.
// The instrumentation wrapper resolves the sink through this interface at
// call time; owners that do not implement it fail the call with a
// configuration error.
type Observable interface {
	EventSink() Sink
}
