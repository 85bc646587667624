// Package provider defines the model-facing types shared by every LLM
// provider implementation: request and response shapes, call options,
// model metadata, and the event payload profiles that instrument the
// provider endpoints.
//
// The two payload profiles, ChatTrace and CompletionTrace, are the only
// places that decide what goes into the begin and end events of a model
// invocation. A provider wires its endpoints through them once, at
// definition time, and every call after that emits exactly one
// begin/end pair on the owner's event sink.
//
// Providers usually only implement the chat endpoints natively. The
// adapters in this package derive the completion endpoints (and the
// reverse) for all four call shapes, so a provider gets the full
// surface from one native implementation.
package provider
