package openai

import (
	"context"
	"fmt"

	"github.com/loomkit/loom/instrument"
	"github.com/loomkit/loom/messages"
	"github.com/loomkit/loom/provider"
	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"
)

// The package-level operations. Only the chat family talks to the API;
// the completion family is derived from the raw chat operations and then
// wrapped on its own, so chat and completion endpoints each emit exactly
// one event pair and never nest.
var (
	chatOp            = provider.ChatTrace.Scalar(rawChat)
	streamChatOp      = provider.ChatTrace.Stream(rawStreamChat)
	chatAsyncOp       = provider.ChatTrace.Future(rawChatAsync)
	streamChatAsyncOp = provider.ChatTrace.Channel(rawStreamChatAsync)

	completeOp            = provider.CompletionTrace.Scalar(provider.CompleteViaChat(rawChat))
	streamCompleteOp      = provider.CompletionTrace.Stream(provider.StreamCompleteViaChat(rawStreamChat))
	completeAsyncOp       = provider.CompletionTrace.Future(provider.CompleteAsyncViaChat(rawChatAsync))
	streamCompleteAsyncOp = provider.CompletionTrace.Channel(provider.StreamCompleteAsyncViaChat(rawStreamChatAsync))
)

func self(owner any) (*LLM, error) {
	l, ok := owner.(*LLM)
	if !ok {
		return nil, fmt.Errorf("openai: operation bound to %T, want *LLM", owner)
	}
	return l, nil
}

func rawChat(ctx context.Context, owner any, in provider.ChatRequest) (provider.ChatResponse, error) {
	l, err := self(owner)
	if err != nil {
		return provider.ChatResponse{}, err
	}
	chat, err := l.client.Chat.Completions.New(ctx, l.buildRequest(in))
	if err != nil {
		return provider.ChatResponse{}, err
	}
	return chatResponse(chat)
}

func rawChatAsync(ctx context.Context, owner any, in provider.ChatRequest) *instrument.Future[provider.ChatResponse] {
	return instrument.Go(func() (provider.ChatResponse, error) {
		return rawChat(ctx, owner, in)
	})
}

func rawStreamChat(ctx context.Context, owner any, in provider.ChatRequest) (provider.ChatStream, error) {
	l, err := self(owner)
	if err != nil {
		return nil, err
	}
	stream := l.client.Chat.Completions.NewStreaming(ctx, l.buildRequest(in))
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return func(yield func(provider.ChatResponse, error) bool) {
		defer stream.Close()
		var acc openai.ChatCompletionAccumulator
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if !yield(chunkResponse(&chunk, &acc), nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(provider.ChatResponse{}, err)
		}
	}, nil
}

func rawStreamChatAsync(ctx context.Context, owner any, in provider.ChatRequest) (<-chan instrument.Item[provider.ChatResponse], error) {
	seq, err := rawStreamChat(ctx, owner, in)
	if err != nil {
		return nil, err
	}
	out := make(chan instrument.Item[provider.ChatResponse])
	go func() {
		defer close(out)
		for v, err := range seq {
			item := instrument.Item[provider.ChatResponse]{Value: v, Err: err}
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func chatResponse(chat *openai.ChatCompletion) (provider.ChatResponse, error) {
	if len(chat.Choices) == 0 {
		return provider.ChatResponse{}, fmt.Errorf("openai: completion %s has no choices", chat.ID)
	}
	return provider.ChatResponse{
		Message: messages.Assistant(chat.Choices[0].Message.Content),
		Raw:     gjson.Parse(chat.JSON.RawJSON()),
	}, nil
}

// chunkResponse carries the accumulated message so far plus the chunk's
// delta, so stream consumers can use either.
func chunkResponse(chunk *openai.ChatCompletionChunk, acc *openai.ChatCompletionAccumulator) provider.ChatResponse {
	var delta string
	if len(chunk.Choices) > 0 {
		delta = chunk.Choices[0].Delta.Content
	}
	var content string
	if len(acc.Choices) > 0 {
		content = acc.Choices[0].Message.Content
	}
	return provider.ChatResponse{
		Message: messages.Assistant(content),
		Delta:   delta,
		Raw:     gjson.Parse(chunk.JSON.RawJSON()),
	}
}
