// Package openai implements the LLM surface on the OpenAI chat
// completions API.
//
// Only the chat endpoints talk to the API directly; the completion
// endpoints are derived from the raw chat operations through the
// provider adapters. All eight endpoints go through the provider traces
// exactly once, at package initialization, so every invocation emits a
// single begin/end event pair on the configured sink.
package openai
