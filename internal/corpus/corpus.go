// Package corpus loads past exam questions and samples them as style
// references for the model paper prompts.
package corpus

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/p-n-ai/ganitha/internal/question"
)

// GenericTopic is used when no corpus topics are available.
const GenericTopic = "ගණිතය"

// index is an immutable snapshot of a loaded corpus.
type index struct {
	source    string
	questions []Question
	byTopic   map[string][]int
	byType    map[question.Type][]int
	topics    []string
}

// Corpus is the reference question store. Reads never observe a partially
// built index: Load builds a new snapshot and swaps it in.
type Corpus struct {
	idx  atomic.Pointer[index]
	path atomic.Value // string

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Corpus.
type Option func(*Corpus)

// WithRand sets the random source used for sampling.
func WithRand(r *rand.Rand) Option {
	return func(c *Corpus) {
		c.rng = r
	}
}

// WithSeed makes sampling deterministic.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// New creates an empty corpus.
func New(opts ...Option) *Corpus {
	c := &Corpus{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the corpus file at path. It returns false, never an error,
// when the file is missing, invalid or holds no usable questions; the
// previously loaded snapshot stays in place in that case.
func (c *Corpus) Load(path string) bool {
	c.path.Store(path)

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("reference corpus not loaded", "path", path, "error", err)
		return false
	}
	return c.LoadData(path, data)
}

// Reload re-reads the file given to the last Load call.
func (c *Corpus) Reload() bool {
	path, _ := c.path.Load().(string)
	if path == "" {
		return false
	}
	return c.Load(path)
}

// LoadData indexes an in-memory corpus document. source is only used for logging.
func (c *Corpus) LoadData(source string, data []byte) bool {
	if len(strings.TrimSpace(string(data))) == 0 {
		slog.Warn("reference corpus is empty", "source", source)
		return false
	}
	if err := validateDocument(data); err != nil {
		slog.Warn("reference corpus rejected", "source", source, "error", err)
		return false
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("reference corpus rejected", "source", source, "error", err)
		return false
	}

	idx := buildIndex(source, doc.Questions)
	if len(idx.questions) == 0 {
		slog.Warn("reference corpus has no usable questions", "source", source)
		return false
	}

	c.idx.Store(idx)
	slog.Info("reference corpus loaded",
		"source", source,
		"questions", len(idx.questions),
		"topics", len(idx.topics),
	)
	return true
}

func buildIndex(source string, questions []Question) *index {
	idx := &index{
		source:  source,
		byTopic: make(map[string][]int),
		byType:  make(map[question.Type][]int),
	}

	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		if q.Type == "" {
			q.Type = question.TypeShortAnswer
		}

		i := len(idx.questions)
		idx.questions = append(idx.questions, q)
		for _, topic := range q.Topics() {
			idx.byTopic[topic] = append(idx.byTopic[topic], i)
		}
		idx.byType[q.Type] = append(idx.byType[q.Type], i)
	}

	for topic := range idx.byTopic {
		idx.topics = append(idx.topics, topic)
	}
	sort.Strings(idx.topics)
	return idx
}

// Loaded reports whether a usable corpus is in place.
func (c *Corpus) Loaded() bool {
	return c.idx.Load() != nil
}

// Topics returns the distinct topics of the loaded corpus.
func (c *Corpus) Topics() []string {
	idx := c.idx.Load()
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.topics...)
}

// ParseTopics splits a combined topic field on "/", trimming and dropping empties.
func ParseTopics(s string) []string {
	var topics []string
	for _, part := range strings.Split(s, "/") {
		if part = strings.TrimSpace(part); part != "" {
			topics = append(topics, part)
		}
	}
	return topics
}

// SampleReferences returns up to count random questions of type t. Topical
// matches are preferred; when there are fewer than count of them the pool is
// widened with at most 2*count questions of the same type from any topic.
func (c *Corpus) SampleReferences(topics []string, t question.Type, count int) []Question {
	idx := c.idx.Load()
	if idx == nil || count <= 0 {
		return nil
	}

	seen := make(map[int]bool)
	var pool []int
	for _, topic := range topics {
		for _, i := range idx.byTopic[topic] {
			if idx.questions[i].Type == t && !seen[i] {
				seen[i] = true
				pool = append(pool, i)
			}
		}
	}

	if len(pool) < count {
		added := 0
		for _, i := range idx.byType[t] {
			if added >= 2*count {
				break
			}
			if !seen[i] {
				seen[i] = true
				pool = append(pool, i)
				added++
			}
		}
	}

	n := min(count, len(pool))
	c.rngMu.Lock()
	for i := range n {
		j := i + c.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	c.rngMu.Unlock()

	refs := make([]Question, n)
	for i := range n {
		refs[i] = idx.questions[pool[i]]
	}
	return refs
}

// SelectTopics draws n topics without replacement, reshuffling the full set
// each time it is exhausted. An empty corpus yields GenericTopic n times.
func (c *Corpus) SelectTopics(n int) []string {
	if n <= 0 {
		return nil
	}

	idx := c.idx.Load()
	if idx == nil || len(idx.topics) == 0 {
		out := make([]string, n)
		for i := range out {
			out[i] = GenericTopic
		}
		return out
	}

	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	out := make([]string, 0, n)
	var deck []string
	for len(out) < n {
		if len(deck) == 0 {
			deck = append(deck[:0], idx.topics...)
			c.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
		}
		out = append(out, deck[0])
		deck = deck[1:]
	}
	return out
}

// Stats summarises the loaded corpus.
type Stats struct {
	Loaded         bool           `json:"past_papers_loaded"`
	Source         string         `json:"source,omitempty"`
	TotalQuestions int            `json:"total_questions"`
	Topics         []string       `json:"available_topics"`
	ByType         map[string]int `json:"questions_by_type"`
	ByTopic        map[string]int `json:"questions_by_topic"`
}

// Stats returns counts for the current snapshot.
func (c *Corpus) Stats() Stats {
	idx := c.idx.Load()
	if idx == nil {
		return Stats{Topics: []string{}, ByType: map[string]int{}, ByTopic: map[string]int{}}
	}

	st := Stats{
		Loaded:         true,
		Source:         idx.source,
		TotalQuestions: len(idx.questions),
		Topics:         append([]string(nil), idx.topics...),
		ByType:         make(map[string]int, len(idx.byType)),
		ByTopic:        make(map[string]int, len(idx.byTopic)),
	}
	for t, ids := range idx.byType {
		st.ByType[string(t)] = len(ids)
	}
	for topic, ids := range idx.byTopic {
		st.ByTopic[topic] = len(ids)
	}
	return st
}
