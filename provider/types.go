package provider

import (
	"iter"

	"github.com/loomkit/loom/messages"
	"github.com/tidwall/gjson"
)

// Defaults applied when a model does not report its own limits.
const (
	DefaultContextWindow = 3900
	DefaultNumOutput     = 256
)

// Metadata describes the capabilities of a concrete model.
type Metadata struct {
	// ContextWindow is the total token budget of a request.
	ContextWindow int
	// NumOutput is the token budget reserved for the model's output.
	NumOutput int
	// IsChatModel is true when the model natively speaks the chat shape.
	IsChatModel bool
	// IsFunctionCalling is true when the model supports tool calls.
	IsFunctionCalling bool
	// Model is the provider-side model identifier.
	Model string
}

// NewMetadata returns metadata for name with the default limits filled in.
func NewMetadata(name string) Metadata {
	return Metadata{
		ContextWindow: DefaultContextWindow,
		NumOutput:     DefaultNumOutput,
		Model:         name,
	}
}

// ChatResponse is the result of a chat endpoint. For streaming endpoints
// each item carries the accumulated message so far plus the new delta.
type ChatResponse struct {
	Message messages.ChatMessage
	Delta   string
	Raw     gjson.Result
}

func (r ChatResponse) String() string {
	return r.Message.String()
}

// CompletionResponse is the result of a completion endpoint. For streaming
// endpoints each item carries the accumulated text so far plus the new
// delta.
type CompletionResponse struct {
	Text  string
	Delta string
	Raw   gjson.Result
}

func (r CompletionResponse) String() string {
	return r.Text
}

// ChatStream and CompletionStream are the sync-streaming result shapes.
type (
	ChatStream       = iter.Seq2[ChatResponse, error]
	CompletionStream = iter.Seq2[CompletionResponse, error]
)

// ChatRequest bundles the inputs of a chat endpoint.
type ChatRequest struct {
	Messages []messages.ChatMessage
	Options  CallOptions
}

// CompletionRequest bundles the inputs of a completion endpoint.
type CompletionRequest struct {
	Prompt  string
	Options CallOptions
}
