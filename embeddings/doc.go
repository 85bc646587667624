// Package embeddings defines the text embedding contract, the similarity
// helpers used by retrieval postprocessors, and an OpenAI-backed
// embedder whose calls emit embedding event pairs.
package embeddings
