package provider

import (
	"fmt"

	"github.com/loomkit/loom/events"
	"github.com/loomkit/loom/instrument"
)

// ChatTrace is the payload profile for chat-shaped endpoints. The begin
// payload carries the conversation, the call options and a descriptor of
// the owning model; for streaming shapes the end payload carries the last
// response seen, or nil when the stream finished without producing one.
var ChatTrace = &instrument.Trace[ChatRequest, ChatResponse]{
	Kind: events.KindLLM,
	BeginPayload: func(owner any, in ChatRequest) events.Payload {
		return events.Payload{
			events.KeyMessages:   in.Messages,
			events.KeyOptions:    in.Options,
			events.KeySerialized: describe(owner),
		}
	},
	EndPayload: func(_ ChatRequest, last ChatResponse, produced bool) events.Payload {
		if !produced {
			return events.Payload{events.KeyResponse: nil}
		}
		return events.Payload{events.KeyResponse: last}
	},
}

// CompletionTrace is the payload profile for completion-shaped endpoints.
var CompletionTrace = &instrument.Trace[CompletionRequest, CompletionResponse]{
	Kind: events.KindLLM,
	BeginPayload: func(owner any, in CompletionRequest) events.Payload {
		return events.Payload{
			events.KeyPrompt:     in.Prompt,
			events.KeyOptions:    in.Options,
			events.KeySerialized: describe(owner),
		}
	},
	EndPayload: func(_ CompletionRequest, last CompletionResponse, produced bool) events.Payload {
		if !produced {
			return events.Payload{events.KeyCompletion: nil}
		}
		return events.Payload{events.KeyCompletion: last}
	},
}

// describe produces the owner descriptor embedded in begin payloads.
// Owners that report model metadata get it inlined; everything else is
// identified by type only.
func describe(owner any) map[string]any {
	desc := map[string]any{
		"type": fmt.Sprintf("%T", owner),
	}
	if m, ok := owner.(interface{ Metadata() Metadata }); ok {
		md := m.Metadata()
		desc["model"] = md.Model
		desc["context_window"] = md.ContextWindow
		desc["num_output"] = md.NumOutput
	}
	return desc
}
