// Package messages defines the chat message model shared by providers,
// event payloads and postprocessors.
//
// Design decisions:
//   - One concrete message type: providers differ in transport, not in the
//     shape of a conversation turn, so a single ChatMessage with a role tag
//     covers chat history, prompts and streamed partials alike.
//   - Free-form extras: provider-specific knobs ride along in Extra instead
//     of spawning per-provider message types.
//   - Stable rendering: String() produces "role: content", which is also
//     the form used in prompt assembly.
package messages
