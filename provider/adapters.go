package provider

import (
	"context"
	"iter"
	"strings"

	"github.com/loomkit/loom/instrument"
	"github.com/loomkit/loom/messages"
	"github.com/loomkit/loom/pkg/stdx"
)

// PromptToMessages lifts a bare prompt into a single-user-message
// conversation.
func PromptToMessages(prompt string) []messages.ChatMessage {
	return []messages.ChatMessage{messages.User(prompt)}
}

// MessagesToPrompt renders a conversation as one prompt, one
// "role: content" line per message, ending with an assistant cue for the
// model to continue.
func MessagesToPrompt(msgs []messages.ChatMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	b.WriteString(string(messages.RoleAssistant))
	b.WriteString(": ")
	return b.String()
}

// CompletionFromChat projects a chat response onto the completion shape.
func CompletionFromChat(r ChatResponse) CompletionResponse {
	return CompletionResponse{Text: r.Message.Content, Delta: r.Delta, Raw: r.Raw}
}

// ChatFromCompletion lifts a completion response into the chat shape as
// an assistant message.
func ChatFromCompletion(r CompletionResponse) ChatResponse {
	return ChatResponse{Message: messages.Assistant(r.Text), Delta: r.Delta, Raw: r.Raw}
}

func chatRequest(in CompletionRequest) ChatRequest {
	return ChatRequest{Messages: PromptToMessages(in.Prompt), Options: in.Options}
}

func completionRequest(in ChatRequest) CompletionRequest {
	return CompletionRequest{Prompt: MessagesToPrompt(in.Messages), Options: in.Options}
}

// The *ViaChat and *ViaComplete adapters derive one endpoint family from
// the other, per call shape. Feed them the raw operation and wrap the
// result: adapting an already wrapped operation and wrapping the result
// again would emit two event pairs per call.

// CompleteViaChat derives a sync-scalar completion op from a chat op.
func CompleteViaChat(op instrument.ScalarFunc[ChatRequest, ChatResponse]) instrument.ScalarFunc[CompletionRequest, CompletionResponse] {
	return mapScalar(op, chatRequest, CompletionFromChat)
}

// StreamCompleteViaChat derives a sync-streaming completion op from a
// chat op.
func StreamCompleteViaChat(op instrument.StreamFunc[ChatRequest, ChatResponse]) instrument.StreamFunc[CompletionRequest, CompletionResponse] {
	return mapStream(op, chatRequest, CompletionFromChat)
}

// CompleteAsyncViaChat derives an async-scalar completion op from a chat
// op.
func CompleteAsyncViaChat(op instrument.FutureFunc[ChatRequest, ChatResponse]) instrument.FutureFunc[CompletionRequest, CompletionResponse] {
	return mapFuture(op, chatRequest, CompletionFromChat)
}

// StreamCompleteAsyncViaChat derives an async-streaming completion op
// from a chat op.
func StreamCompleteAsyncViaChat(op instrument.ChannelFunc[ChatRequest, ChatResponse]) instrument.ChannelFunc[CompletionRequest, CompletionResponse] {
	return mapChannel(op, chatRequest, CompletionFromChat)
}

// ChatViaComplete derives a sync-scalar chat op from a completion op.
func ChatViaComplete(op instrument.ScalarFunc[CompletionRequest, CompletionResponse]) instrument.ScalarFunc[ChatRequest, ChatResponse] {
	return mapScalar(op, completionRequest, ChatFromCompletion)
}

// StreamChatViaComplete derives a sync-streaming chat op from a
// completion op.
func StreamChatViaComplete(op instrument.StreamFunc[CompletionRequest, CompletionResponse]) instrument.StreamFunc[ChatRequest, ChatResponse] {
	return mapStream(op, completionRequest, ChatFromCompletion)
}

// ChatAsyncViaComplete derives an async-scalar chat op from a completion
// op.
func ChatAsyncViaComplete(op instrument.FutureFunc[CompletionRequest, CompletionResponse]) instrument.FutureFunc[ChatRequest, ChatResponse] {
	return mapFuture(op, completionRequest, ChatFromCompletion)
}

// StreamChatAsyncViaComplete derives an async-streaming chat op from a
// completion op.
func StreamChatAsyncViaComplete(op instrument.ChannelFunc[CompletionRequest, CompletionResponse]) instrument.ChannelFunc[ChatRequest, ChatResponse] {
	return mapChannel(op, completionRequest, ChatFromCompletion)
}

func mapScalar[InA, OutA, InB, OutB any](
	op instrument.ScalarFunc[InA, OutA],
	mapIn func(InB) InA,
	mapOut func(OutA) OutB,
) instrument.ScalarFunc[InB, OutB] {
	return func(ctx context.Context, owner any, in InB) (OutB, error) {
		out, err := op(ctx, owner, mapIn(in))
		if err != nil {
			return stdx.Zero[OutB](), err
		}
		return mapOut(out), nil
	}
}

func mapStream[InA, OutA, InB, OutB any](
	op instrument.StreamFunc[InA, OutA],
	mapIn func(InB) InA,
	mapOut func(OutA) OutB,
) instrument.StreamFunc[InB, OutB] {
	return func(ctx context.Context, owner any, in InB) (iter.Seq2[OutB, error], error) {
		seq, err := op(ctx, owner, mapIn(in))
		if err != nil {
			return nil, err
		}
		return func(yield func(OutB, error) bool) {
			for v, err := range seq {
				if err != nil {
					if !yield(stdx.Zero[OutB](), err) {
						return
					}
					continue
				}
				if !yield(mapOut(v), nil) {
					return
				}
			}
		}, nil
	}
}

func mapFuture[InA, OutA, InB, OutB any](
	op instrument.FutureFunc[InA, OutA],
	mapIn func(InB) InA,
	mapOut func(OutA) OutB,
) instrument.FutureFunc[InB, OutB] {
	return func(ctx context.Context, owner any, in InB) *instrument.Future[OutB] {
		inner := op(ctx, owner, mapIn(in))
		return instrument.Go(func() (OutB, error) {
			out, err := inner.Await(ctx)
			if err != nil {
				return stdx.Zero[OutB](), err
			}
			return mapOut(out), nil
		})
	}
}

func mapChannel[InA, OutA, InB, OutB any](
	op instrument.ChannelFunc[InA, OutA],
	mapIn func(InB) InA,
	mapOut func(OutA) OutB,
) instrument.ChannelFunc[InB, OutB] {
	return func(ctx context.Context, owner any, in InB) (<-chan instrument.Item[OutB], error) {
		inner, err := op(ctx, owner, mapIn(in))
		if err != nil {
			return nil, err
		}
		out := make(chan instrument.Item[OutB])
		go func() {
			defer close(out)
			for item := range inner {
				mapped := instrument.Item[OutB]{Err: item.Err}
				if item.Err == nil {
					mapped.Value = mapOut(item.Value)
				}
				select {
				case out <- mapped:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}
