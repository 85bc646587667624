// Package postprocessor reshapes retrieved nodes after a query: an
// LLM-based reranker and a sentence-level optimizer that prunes node
// text by embedding similarity.
//
// Both are consumers of the instrumented model surface. Their inner
// model calls emit llm and embedding event pairs on their own; the
// reranker additionally emits a rerank pair around each invocation.
package postprocessor
