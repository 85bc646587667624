package openai

import (
	"context"

	"github.com/fogfish/opts"
	loom "github.com/loomkit/loom"
	"github.com/loomkit/loom/events"
	"github.com/loomkit/loom/instrument"
	"github.com/loomkit/loom/messages"
	"github.com/loomkit/loom/provider"
	"github.com/loomkit/loom/provider/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

var _ loom.LLM = (*LLM)(nil)

var _ events.Observable = (*LLM)(nil)

// LLM is an OpenAI-backed language model.
type LLM struct {
	model       string
	sink        events.Sink
	requestOpts []option.RequestOption
	client      *openai.Client
	md          provider.Metadata
}

var (
	// WithModel selects the model identifier. Defaults to gpt-4o-mini.
	WithModel = opts.ForName[LLM, string]("model")

	// WithSink sets the event sink that receives the begin/end pairs of
	// every invocation. Without a sink every call fails at its first
	// event.
	WithSink = opts.ForName[LLM, events.Sink]("sink")
)

// WithRequestOptions forwards client options (API key, base URL, HTTP
// client) to the underlying SDK.
func WithRequestOptions(options ...option.RequestOption) opts.Option[LLM] {
	return opts.Type[LLM](func(l *LLM) error {
		l.requestOpts = append(l.requestOpts, options...)
		return nil
	})
}

// New constructs an OpenAI LLM. Configuration errors panic: they are
// programming mistakes, not runtime conditions.
func New(options ...opts.Option[LLM]) *LLM {
	l := &LLM{model: openai.ChatModelGPT4oMini}
	if err := opts.Apply(l, options); err != nil {
		panic(err)
	}
	l.client = openai.NewClient(l.requestOpts...)
	l.md = models.GetOrAdd(l.model, func() provider.Metadata {
		return knownMetadata(l.model)
	})
	return l
}

// EventSink implements events.Observable.
func (l *LLM) EventSink() events.Sink { return l.sink }

// Metadata reports the capabilities of the configured model.
func (l *LLM) Metadata() provider.Metadata { return l.md }

func (l *LLM) Chat(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) (provider.ChatResponse, error) {
	in, err := chatRequestFor(msgs, options)
	if err != nil {
		return provider.ChatResponse{}, err
	}
	return chatOp(ctx, l, in)
}

func (l *LLM) Complete(ctx context.Context, prompt string, options ...provider.CallOption) (provider.CompletionResponse, error) {
	in, err := completionRequestFor(prompt, options)
	if err != nil {
		return provider.CompletionResponse{}, err
	}
	return completeOp(ctx, l, in)
}

func (l *LLM) StreamChat(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) (provider.ChatStream, error) {
	in, err := chatRequestFor(msgs, options)
	if err != nil {
		return nil, err
	}
	return streamChatOp(ctx, l, in)
}

func (l *LLM) StreamComplete(ctx context.Context, prompt string, options ...provider.CallOption) (provider.CompletionStream, error) {
	in, err := completionRequestFor(prompt, options)
	if err != nil {
		return nil, err
	}
	return streamCompleteOp(ctx, l, in)
}

func (l *LLM) ChatAsync(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) *instrument.Future[provider.ChatResponse] {
	in, err := chatRequestFor(msgs, options)
	if err != nil {
		return instrument.Failed[provider.ChatResponse](err)
	}
	return chatAsyncOp(ctx, l, in)
}

func (l *LLM) CompleteAsync(ctx context.Context, prompt string, options ...provider.CallOption) *instrument.Future[provider.CompletionResponse] {
	in, err := completionRequestFor(prompt, options)
	if err != nil {
		return instrument.Failed[provider.CompletionResponse](err)
	}
	return completeAsyncOp(ctx, l, in)
}

func (l *LLM) StreamChatAsync(ctx context.Context, msgs []messages.ChatMessage, options ...provider.CallOption) (<-chan instrument.Item[provider.ChatResponse], error) {
	in, err := chatRequestFor(msgs, options)
	if err != nil {
		return nil, err
	}
	return streamChatAsyncOp(ctx, l, in)
}

func (l *LLM) StreamCompleteAsync(ctx context.Context, prompt string, options ...provider.CallOption) (<-chan instrument.Item[provider.CompletionResponse], error) {
	in, err := completionRequestFor(prompt, options)
	if err != nil {
		return nil, err
	}
	return streamCompleteAsyncOp(ctx, l, in)
}

func chatRequestFor(msgs []messages.ChatMessage, options []provider.CallOption) (provider.ChatRequest, error) {
	callOpts, err := provider.NewCallOptions(options...)
	if err != nil {
		return provider.ChatRequest{}, err
	}
	return provider.ChatRequest{Messages: msgs, Options: callOpts}, nil
}

func completionRequestFor(prompt string, options []provider.CallOption) (provider.CompletionRequest, error) {
	callOpts, err := provider.NewCallOptions(options...)
	if err != nil {
		return provider.CompletionRequest{}, err
	}
	return provider.CompletionRequest{Prompt: prompt, Options: callOpts}, nil
}

func (l *LLM) buildRequest(in provider.ChatRequest) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for _, m := range in.Messages {
		switch m.Role {
		case messages.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case messages.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(msgs),
		Model:    openai.F(l.model),
		N:        openai.Int(1),
	}
	if in.Options.Temperature > 0 {
		params.Temperature = openai.Float(in.Options.Temperature)
	}
	if in.Options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(in.Options.MaxTokens))
	}
	if so := in.Options.Schema; so != nil {
		js := shared.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   openai.String(so.Name),
			Schema: openai.F[interface{}](so.Schema),
		}
		if so.Description != "" {
			js.Description = openai.String(so.Description)
		}
		params.ResponseFormat = openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			shared.ResponseFormatJSONSchemaParam{
				Type:       openai.F(shared.ResponseFormatJSONSchemaTypeJSONSchema),
				JSONSchema: openai.F(js),
			},
		)
	}
	return params
}
