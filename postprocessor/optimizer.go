package postprocessor

import (
	"context"
	"fmt"
	"strings"

	"github.com/fogfish/opts"
	"github.com/loomkit/loom/embeddings"
	"github.com/neurosnap/sentences/english"
)

var _ Postprocessor = (*SentenceEmbeddingOptimizer)(nil)

// SentenceEmbeddingOptimizer shortens node text given a query: it splits
// each node into sentences, embeds them, and keeps only the sentences
// similar enough to the query.
type SentenceEmbeddingOptimizer struct {
	embedder embeddings.Embedder
	split    func(string) []string

	// percentileCutoff keeps the top fraction of sentences per node;
	// thresholdCutoff drops sentences below a similarity floor. They can
	// be combined.
	percentileCutoff *float64
	thresholdCutoff  *float64
}

var (
	// WithPercentileCutoff keeps the given fraction (0..1] of sentences,
	// best first.
	WithPercentileCutoff = opts.ForName[SentenceEmbeddingOptimizer, *float64]("percentileCutoff")

	// WithThresholdCutoff drops sentences whose similarity to the query
	// is below the given floor.
	WithThresholdCutoff = opts.ForName[SentenceEmbeddingOptimizer, *float64]("thresholdCutoff")
)

// WithSplitter replaces the sentence splitter. The default is an English
// punkt tokenizer.
func WithSplitter(split func(string) []string) opts.Option[SentenceEmbeddingOptimizer] {
	return opts.Type[SentenceEmbeddingOptimizer](func(o *SentenceEmbeddingOptimizer) error {
		o.split = split
		return nil
	})
}

// NewSentenceEmbeddingOptimizer builds an optimizer on top of embedder.
func NewSentenceEmbeddingOptimizer(embedder embeddings.Embedder, options ...opts.Option[SentenceEmbeddingOptimizer]) (*SentenceEmbeddingOptimizer, error) {
	o := &SentenceEmbeddingOptimizer{embedder: embedder}
	if err := opts.Apply(o, options); err != nil {
		return nil, err
	}
	if o.split == nil {
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("postprocessor: loading sentence tokenizer: %w", err)
		}
		o.split = func(text string) []string {
			raw := tokenizer.Tokenize(text)
			out := make([]string, 0, len(raw))
			for _, s := range raw {
				if t := strings.TrimSpace(s.Text); t != "" {
					out = append(out, t)
				}
			}
			return out
		}
	}
	return o, nil
}

// PostprocessNodes implements Postprocessor. The embedding calls inside
// emit their own event pairs through the embedder.
func (o *SentenceEmbeddingOptimizer) PostprocessNodes(ctx context.Context, nodes []NodeWithScore, query QueryBundle) ([]NodeWithScore, error) {
	if query.Query == "" && query.Embedding == nil {
		return nodes, nil
	}

	queryEmb := query.Embedding
	out := make([]NodeWithScore, len(nodes))
	for i, node := range nodes {
		sents := o.split(node.Node.Text)
		if len(sents) == 0 {
			out[i] = node
			continue
		}

		if queryEmb == nil {
			var err error
			queryEmb, err = embeddings.EmbedQuery(ctx, o.embedder, query.Query)
			if err != nil {
				return nil, err
			}
		}

		vecs, err := o.embedder.Embed(ctx, sents)
		if err != nil {
			return nil, err
		}

		var topK *int
		if o.percentileCutoff != nil {
			k := int(float64(len(sents)) * *o.percentileCutoff)
			topK = &k
		}
		scored, err := embeddings.TopK(queryEmb, vecs, topK, o.thresholdCutoff)
		if err != nil {
			return nil, err
		}
		if len(scored) == 0 {
			return nil, fmt.Errorf("postprocessor: every sentence of node %s fell below the cutoff", node.Node.ID)
		}

		kept := make([]string, len(scored))
		for j, s := range scored {
			kept[j] = sents[s.Index]
		}

		out[i] = node
		out[i].Node.Text = strings.Join(kept, " ")
	}
	return out, nil
}
