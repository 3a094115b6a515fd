// Package retriever supplies optional grounding material for lesson prompts.
// Retrieval is best effort: a failed or empty lookup means the caller falls
// back to template-only generation.
package retriever

import "context"

// Collection names one family of reference snippets.
type Collection string

const (
	Examples   Collection = "examples"
	Exercises  Collection = "exercises"
	Paragraphs Collection = "paragraphs"
	Guidelines Collection = "guidelines"
)

// Collections lists every collection in load order.
var Collections = []Collection{Examples, Exercises, Paragraphs, Guidelines}

// Snippet is one retrieved piece of text.
type Snippet struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Topic string  `json:"topic,omitempty"`
	Score float64 `json:"score"`
}

// Context groups retrieved snippets by collection.
type Context map[Collection][]Snippet

// Empty reports whether nothing was retrieved.
func (c Context) Empty() bool {
	for _, s := range c {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Texts returns the snippet texts of the given collections, in order.
func (c Context) Texts(cols ...Collection) []string {
	var out []string
	for _, col := range cols {
		for _, s := range c[col] {
			out = append(out, s.Text)
		}
	}
	return out
}

// Retriever looks up up to n snippets per collection for a query.
// An empty topic disables topic filtering.
type Retriever interface {
	Retrieve(ctx context.Context, query, topic string, n int) (Context, error)
	Ready() bool
}

// Nop never returns anything.
type Nop struct{}

func (Nop) Retrieve(context.Context, string, string, int) (Context, error) {
	return Context{}, nil
}

func (Nop) Ready() bool { return false }
