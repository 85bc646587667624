package loom

import (
	"context"

	"github.com/loomkit/loom/instrument"
	"github.com/loomkit/loom/messages"
	"github.com/loomkit/loom/provider"
)

// LLM is the full surface of a language model: chat and completion, each
// in scalar and streaming form, each with an asynchronous twin. Every
// endpoint of a conforming implementation emits exactly one begin/end
// event pair per invocation on the model's event sink.
type LLM interface {
	// Metadata reports the capabilities of the underlying model.
	Metadata() provider.Metadata

	// Chat sends a conversation and blocks for the full response.
	Chat(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) (provider.ChatResponse, error)

	// Complete sends a prompt and blocks for the full completion.
	Complete(ctx context.Context, prompt string, options ...provider.CallOption) (provider.CompletionResponse, error)

	// StreamChat sends a conversation and returns the response as a lazy
	// sequence of accumulating chunks.
	StreamChat(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) (provider.ChatStream, error)

	// StreamComplete sends a prompt and returns the completion as a lazy
	// sequence of accumulating chunks.
	StreamComplete(ctx context.Context, prompt string, options ...provider.CallOption) (provider.CompletionStream, error)

	// ChatAsync is Chat without blocking; the result arrives on the
	// returned future.
	ChatAsync(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) *instrument.Future[provider.ChatResponse]

	// CompleteAsync is Complete without blocking.
	CompleteAsync(ctx context.Context, prompt string, options ...provider.CallOption) *instrument.Future[provider.CompletionResponse]

	// StreamChatAsync is StreamChat with the chunks delivered on a
	// channel instead of a pull sequence.
	StreamChatAsync(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) (<-chan instrument.Item[provider.ChatResponse], error)

	// StreamCompleteAsync is StreamComplete with the chunks delivered on
	// a channel.
	StreamCompleteAsync(ctx context.Context, prompt string, options ...provider.CallOption) (<-chan instrument.Item[provider.CompletionResponse], error)
}
