package postprocessor

import "context"

// Node is a retrieved chunk of text.
type Node struct {
	ID   string
	Text string
}

// NodeWithScore pairs a node with its retrieval or relevance score.
type NodeWithScore struct {
	Node  Node
	Score float64
}

// QueryBundle carries the query string and, once computed, its
// embedding so repeated postprocessors can share it.
type QueryBundle struct {
	Query     string
	Embedding []float64
}

// Postprocessor transforms a ranked node list in the context of a query.
type Postprocessor interface {
	PostprocessNodes(ctx context.Context, nodes []NodeWithScore, query QueryBundle) ([]NodeWithScore, error)
}
