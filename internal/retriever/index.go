package retriever

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type document struct {
	Snippet
	vector []float64
	terms  map[string]struct{}
}

// Index is an in-memory vector index over the four collections.
// Documents without a vector are still reachable through keyword ranking.
type Index struct {
	embedder Embedder

	mu   sync.RWMutex
	docs map[Collection][]document
}

// NewIndex creates an empty index. A nil embedder restricts ranking to
// keyword overlap.
func NewIndex(embedder Embedder) *Index {
	return &Index{
		embedder: embedder,
		docs:     make(map[Collection][]document),
	}
}

// LoadDir reads <collection>.json for every collection found in dir.
// Missing files are skipped; it returns the number of collections loaded.
func (ix *Index) LoadDir(ctx context.Context, dir string) (int, error) {
	loaded := 0
	for _, col := range Collections {
		path := filepath.Join(dir, string(col)+".json")
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("retriever collection not found", "collection", col, "path", path)
			continue
		}
		if err != nil {
			return loaded, fmt.Errorf("read %s: %w", path, err)
		}

		snippets, err := decodeCollection(col, data)
		if err != nil {
			slog.Warn("skipping invalid retriever collection", "collection", col, "path", path, "error", err)
			continue
		}
		if len(snippets) == 0 {
			continue
		}
		ix.Add(ctx, col, snippets...)
		loaded++
	}

	slog.Info("retriever index loaded", "dir", dir, "collections", loaded, "documents", ix.Len())
	return loaded, nil
}

// Add indexes snippets into a collection. Embedding stops at the first
// failure and the remaining snippets are indexed for keyword ranking only.
func (ix *Index) Add(ctx context.Context, col Collection, snippets ...Snippet) {
	embed := ix.embedder != nil
	docs := make([]document, 0, len(snippets))
	for _, s := range snippets {
		doc := document{Snippet: s, terms: terms(s.Text)}
		if embed {
			vec, err := ix.embedder.Embed(ctx, s.Text)
			if err != nil {
				slog.Warn("embedding unavailable, indexing for keyword search", "collection", col, "error", err)
				embed = false
			} else {
				doc.vector = vec
			}
		}
		docs = append(docs, doc)
	}

	ix.mu.Lock()
	ix.docs[col] = append(ix.docs[col], docs...)
	ix.mu.Unlock()
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, d := range ix.docs {
		n += len(d)
	}
	return n
}

// Stats returns the document count per collection.
func (ix *Index) Stats() map[Collection]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[Collection]int, len(ix.docs))
	for col, d := range ix.docs {
		out[col] = len(d)
	}
	return out
}

func (ix *Index) Ready() bool {
	return ix.Len() > 0
}

// Retrieve ranks each collection against the query. Cosine similarity is used
// when the query can be embedded, keyword overlap otherwise.
func (ix *Index) Retrieve(ctx context.Context, query, topic string, n int) (Context, error) {
	out := Context{}
	if n <= 0 || strings.TrimSpace(query) == "" {
		return out, nil
	}

	var queryVec []float64
	if ix.embedder != nil {
		vec, err := ix.embedder.Embed(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			slog.Warn("query embedding failed, using keyword search", "error", err)
		} else {
			queryVec = vec
		}
	}
	queryTerms := terms(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, col := range Collections {
		var scored []Snippet
		for _, doc := range ix.docs[col] {
			if topic != "" && doc.Topic != topic {
				continue
			}
			var score float64
			if queryVec != nil && doc.vector != nil {
				score = cosineSimilarity(queryVec, doc.vector)
			} else {
				score = overlap(queryTerms, doc.terms)
				if score == 0 {
					continue
				}
			}
			s := doc.Snippet
			s.Score = score
			scored = append(scored, s)
		}

		slices.SortStableFunc(scored, func(a, b Snippet) int {
			return cmp.Compare(b.Score, a.Score)
		})
		if len(scored) > n {
			scored = scored[:n]
		}
		out[col] = scored
	}
	return out, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func terms(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,:;!?()[]{}\"'")
		if f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

// overlap is the fraction of query terms present in the document.
func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for t := range query {
		if _, ok := doc[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// textKeys are tried in order to find a record's text.
var textKeys = []string{"text", "content", "question", "example", "paragraph", "guideline"}

// decodeCollection accepts a bare array or an object holding the array under
// the collection name. Items are strings or objects with a text field.
func decodeCollection(col Collection, data []byte) ([]Snippet, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapped map[string][]json.RawMessage
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode collection: %w", err)
		}
		items = wrapped[string(col)]
	}

	var out []Snippet
	for i, raw := range items {
		s := Snippet{ID: fmt.Sprintf("%s_%d", col, i)}

		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			s.Text = strings.TrimSpace(text)
		} else {
			var rec map[string]any
			if err := json.Unmarshal(raw, &rec); err != nil {
				continue
			}
			for _, k := range textKeys {
				if v, ok := rec[k].(string); ok && strings.TrimSpace(v) != "" {
					s.Text = strings.TrimSpace(v)
					break
				}
			}
			if v, ok := rec["topic"].(string); ok {
				s.Topic = strings.TrimSpace(v)
			}
			if v, ok := rec["id"].(string); ok && v != "" {
				s.ID = v
			}
		}

		if s.Text != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
