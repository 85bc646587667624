package embeddings

import (
	"context"
	"errors"
)

// Embedder turns texts into vectors. One vector per input text, in input
// order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedQuery embeds a single query string.
func EmbedQuery(ctx context.Context, e Embedder, query string) ([]float64, error) {
	vecs, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, errors.New("embeddings: embedder returned no vectors")
	}
	return vecs[0], nil
}
