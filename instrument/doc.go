// Package instrument wraps model-invocation operations so that every call
// emits one correlated begin/end event pair to the owner's event sink,
// without changing what the caller sees.
//
// Operations come in four shapes, one per execution/return style:
//
//	sync-scalar      func(ctx, owner, in) (Out, error)
//	sync-streaming   func(ctx, owner, in) (iter.Seq2[Out, error], error)
//	async-scalar     func(ctx, owner, in) *Future[Out]
//	async-streaming  func(ctx, owner, in) (<-chan Item[Out], error)
//
// Classify determines the shape from the signature alone; Wrap dispatches
// to the matching Trace method. The shape is fixed at wrap time, never
// re-inspected per call.
//
// Semantics, identical across shapes:
//   - begin fires before the underlying operation does any work; its
//     payload carries the invocation inputs and a descriptor of the owner.
//   - end fires once the result exists. For streaming shapes that means
//     sequence exhaustion, and the end payload carries the last item seen
//     (or no result for an empty sequence), no matter how many items were
//     produced in between.
//   - a consumer that stops pulling a stream abandons it: end never fires.
//     That is defined behavior, not a leak of the contract.
//   - failures of the underlying operation propagate unchanged and
//     suppress the end event. Begin has already fired at that point.
//   - sink failures propagate to the caller at the point they occur, on
//     the same channel the operation's own failures use.
//
// The owner is resolved at call time: it must implement events.Observable
// with a non-nil sink, otherwise the call fails with ErrNoSink before any
// event is emitted. Wrap time cannot check this because the owner instance
// is not bound until the call.
//
// Wrapping is idempotent. A side table keyed by the operation's code
// pointer records every operation that has been through a wrap; wrapping a
// recorded operation returns it unchanged, so layered wrapping never
// double-counts. The corollary is that operations must be wrapped at
// definition time: closures minted per instance from one literal share a
// code pointer and therefore share the marker.
package instrument
