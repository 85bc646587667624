/*
Package loom wraps language model invocations so that every call emits a
correlated pair of begin and end events on an event sink, without the
call sites knowing anything about observability.

The package is organized around a few abstractions:

  - LLM: the full model surface, eight endpoints covering chat and
    completion in their synchronous, streaming, asynchronous and
    asynchronous-streaming forms
  - Instrumentation: generic wrappers that attach an event pair to an
    operation, one wrapper per call shape (package instrument)
  - Events: the sink contract, the fan-out manager and the bundled
    handlers that record, log or publish event pairs (package events,
    packages sinks/...)
  - Providers: concrete model backends; the OpenAI provider ships in
    provider/openai, and package provider holds the shared types plus
    the adapters that derive completion endpoints from chat endpoints

# Basic Usage

Construct a provider with an event sink and call it like any other
client. Every endpoint emits exactly one begin/end event pair per call:

	llm := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithSink(events.NewManager(events.NewSlogHandler(logger))),
	)

	resp, err := llm.Chat(ctx, []messages.ChatMessage{
		messages.User("What is a loom?"),
	})

	stream, err := llm.StreamComplete(ctx, "Weaving is")
	for chunk, err := range stream {
		...
	}

Streaming calls emit their end event when the stream is exhausted; a
stream the consumer walks away from never completes and emits no end
event. Failures likewise emit no end event, so handlers can treat a
dangling begin as an open or failed invocation.
*/
package loom
