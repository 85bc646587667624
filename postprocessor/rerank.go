package postprocessor

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/fogfish/opts"
	"github.com/loomkit/loom/events"
	"github.com/loomkit/loom/instrument"
	"github.com/loomkit/loom/provider"
)

// Completer is the slice of the model surface the reranker needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, options ...provider.CallOption) (provider.CompletionResponse, error)
}

const defaultChoiceSelectPrompt = `A list of documents is shown below. Each document has a number next to it along with a summary of the document. A question is also provided.
Respond with the numbers of the documents you should consult to answer the question, in order of relevance, as well as the relevance score. The relevance score is a number from 1-10 based on how relevant you think the document is to the question.
Do not include any documents that are not relevant to the question.
Example format:
Document 1:
<summary of document 1>

Document 2:
<summary of document 2>

...

Document 10:
<summary of document 10>

Question: <question>
Answer:
Doc: 9, Relevance: 7
Doc: 3, Relevance: 4
Doc: 7, Relevance: 3

Let's try this now:

{{.Context}}
Question: {{.Query}}
Answer:
`

// choiceLine matches one answer line of the form "Doc: 9, Relevance: 7".
var choiceLine = regexp.MustCompile(`(?i)^\s*doc(?:ument)?\s*:?\s*(\d+)\s*,\s*relevance\s*:?\s*([0-9]+(?:\.[0-9]+)?)\s*$`)

type rerankInput struct {
	Nodes []NodeWithScore
	Query QueryBundle
}

var rerankTrace = &instrument.Trace[rerankInput, []NodeWithScore]{
	Kind: events.KindRerank,
	BeginPayload: func(owner any, in rerankInput) events.Payload {
		return events.Payload{
			events.KeyQuery:      in.Query.Query,
			events.KeyNodes:      nodeIDs(in.Nodes),
			events.KeySerialized: map[string]any{"type": fmt.Sprintf("%T", owner)},
		}
	},
	EndPayload: func(_ rerankInput, last []NodeWithScore, produced bool) events.Payload {
		if !produced {
			return events.Payload{events.KeyNodes: nil}
		}
		return events.Payload{events.KeyNodes: nodeIDs(last)}
	},
}

var rerankOp = rerankTrace.Scalar(rawRerank)

var (
	_ Postprocessor     = (*LLMRerank)(nil)
	_ events.Observable = (*LLMRerank)(nil)
)

// LLMRerank asks a language model to pick and score the most relevant
// nodes for a query, in batches, and keeps the top scorers.
type LLMRerank struct {
	llm       Completer
	sink      events.Sink
	batchSize int
	topN      int
	prompt    *template.Template
}

var (
	// WithBatchSize caps how many nodes go into one model call.
	WithBatchSize = opts.ForName[LLMRerank, int]("batchSize")

	// WithTopN sets how many nodes survive the rerank.
	WithTopN = opts.ForName[LLMRerank, int]("topN")

	// WithSink overrides the event sink. By default the reranker shares
	// the completer's sink.
	WithSink = opts.ForName[LLMRerank, events.Sink]("sink")
)

// WithPrompt replaces the choice-select prompt. The template receives
// .Context (the numbered document batch) and .Query.
func WithPrompt(text string) opts.Option[LLMRerank] {
	return opts.Type[LLMRerank](func(r *LLMRerank) error {
		tmpl, err := template.New("choice-select").Parse(text)
		if err != nil {
			return fmt.Errorf("postprocessor: parsing rerank prompt: %w", err)
		}
		r.prompt = tmpl
		return nil
	})
}

// NewLLMRerank builds a reranker on top of llm.
func NewLLMRerank(llm Completer, options ...opts.Option[LLMRerank]) (*LLMRerank, error) {
	r := &LLMRerank{
		llm:       llm,
		batchSize: 10,
		topN:      10,
		prompt:    template.Must(template.New("choice-select").Parse(defaultChoiceSelectPrompt)),
	}
	if err := opts.Apply(r, options); err != nil {
		return nil, err
	}
	if r.sink == nil {
		if obs, ok := llm.(events.Observable); ok {
			r.sink = obs.EventSink()
		}
	}
	return r, nil
}

// EventSink implements events.Observable.
func (r *LLMRerank) EventSink() events.Sink { return r.sink }

// PostprocessNodes implements Postprocessor. Each invocation emits one
// rerank event pair; the model calls inside emit their own llm pairs.
func (r *LLMRerank) PostprocessNodes(ctx context.Context, nodes []NodeWithScore, query QueryBundle) ([]NodeWithScore, error) {
	return rerankOp(ctx, r, rerankInput{Nodes: nodes, Query: query})
}

func rawRerank(ctx context.Context, owner any, in rerankInput) ([]NodeWithScore, error) {
	r, ok := owner.(*LLMRerank)
	if !ok {
		return nil, fmt.Errorf("postprocessor: operation bound to %T, want *LLMRerank", owner)
	}

	var ranked []NodeWithScore
	for start := 0; start < len(in.Nodes); start += r.batchSize {
		end := min(start+r.batchSize, len(in.Nodes))
		batch := in.Nodes[start:end]

		prompt, err := r.renderPrompt(batch, in.Query.Query)
		if err != nil {
			return nil, err
		}
		resp, err := r.llm.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}

		choices, err := parseChoiceSelect(resp.Text, len(batch))
		if err != nil {
			return nil, err
		}
		for _, c := range choices {
			ranked = append(ranked, NodeWithScore{Node: batch[c.doc-1].Node, Score: c.relevance})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}
	return ranked, nil
}

func (r *LLMRerank) renderPrompt(batch []NodeWithScore, query string) (string, error) {
	var ctxStr strings.Builder
	for i, n := range batch {
		fmt.Fprintf(&ctxStr, "Document %d:\n%s\n\n", i+1, n.Node.Text)
	}

	var buf strings.Builder
	err := r.prompt.Execute(&buf, struct {
		Context string
		Query   string
	}{Context: strings.TrimRight(ctxStr.String(), "\n"), Query: query})
	if err != nil {
		return "", fmt.Errorf("postprocessor: rendering rerank prompt: %w", err)
	}
	return buf.String(), nil
}

type choice struct {
	doc       int
	relevance float64
}

// parseChoiceSelect extracts "Doc: N, Relevance: X" lines from the model
// answer. Lines that do not match are skipped; document numbers outside
// the batch are rejected.
func parseChoiceSelect(answer string, batchLen int) ([]choice, error) {
	var choices []choice
	for _, line := range strings.Split(answer, "\n") {
		m := choiceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		doc, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if doc < 1 || doc > batchLen {
			return nil, fmt.Errorf("postprocessor: document %d out of range 1..%d", doc, batchLen)
		}
		relevance, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		choices = append(choices, choice{doc: doc, relevance: relevance})
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("postprocessor: no choices in answer %q", answer)
	}
	return choices, nil
}

func nodeIDs(nodes []NodeWithScore) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.Node.ID
	}
	return ids
}
