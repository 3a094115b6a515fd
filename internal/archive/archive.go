// Package archive stores generated model papers so they can be fetched and
// exported after the generating request has returned.
package archive

import (
	"context"
	"errors"
	"sync"

	"github.com/p-n-ai/ganitha/internal/question"
)

// ErrNotFound is returned when no paper matches.
var ErrNotFound = errors.New("paper not found")

// Store persists generated papers.
type Store interface {
	Save(ctx context.Context, paper question.Paper) error
	Get(ctx context.Context, id string) (question.Paper, error)
	// Latest returns the most recently saved paper.
	Latest(ctx context.Context) (question.Paper, error)
}

// MemoryStore keeps papers in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	papers map[string]question.Paper
	latest string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{papers: make(map[string]question.Paper)}
}

func (s *MemoryStore) Save(_ context.Context, paper question.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.papers[paper.ID] = paper
	s.latest = paper.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (question.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.papers[id]
	if !ok {
		return question.Paper{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Latest(ctx context.Context) (question.Paper, error) {
	s.mu.RLock()
	id := s.latest
	s.mu.RUnlock()
	if id == "" {
		return question.Paper{}, ErrNotFound
	}
	return s.Get(ctx, id)
}
