// Package events defines the lifecycle-event contract between instrumented
// model invocations and the collaborators that observe them.
//
// Every instrumented call produces exactly one begin event and, unless the
// call fails or its stream is abandoned, exactly one matching end event.
// The two are linked by an opaque correlation identifier assigned by the
// sink at begin time.
//
// Design decisions:
//   - Sink is the narrow contract the instrumentation core calls; it knows
//     nothing about storage, export or sampling.
//   - Manager is the standard Sink: it assigns v7 UUID correlations and
//     fans each begin/end out to any number of Handlers. A Manager with no
//     handlers is valid and is the default sink for providers, so wrapped
//     operations never need a nil check.
//   - Handler failures propagate: the wrapper surfaces them to the caller
//     of the instrumented operation instead of swallowing them.
//   - Payloads are plain maps assembled fresh per call. Key constants are
//     shared so sinks can pick fields out without string literals.
//
// The package ships two handlers: Recorder, an in-memory capture used
// throughout the tests, and SlogHandler, which writes begin/end pairs to a
// log/slog logger. Transport- and storage-backed handlers live in the
// sinks subpackages.
package events
