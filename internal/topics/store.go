// Package topics holds the per-topic generation parameters used by the
// lesson-wise prompt builder and the model paper guidance.
package topics

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultTopic is returned by Lookup when the requested topic is unknown.
const DefaultTopic = "පොළිය"

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Store loads and caches topic configurations.
type Store struct {
	configs map[string]Config
	mu      sync.RWMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{configs: make(map[string]Config)}
}

// NewDefaultStore creates a store seeded with the built-in topics and,
// when dir is non-empty, overlays the YAML files found under it.
func NewDefaultStore(dir string) (*Store, error) {
	s := NewStore()
	if err := s.LoadFS(defaultsFS, "defaults"); err != nil {
		return nil, fmt.Errorf("loading built-in topics: %w", err)
	}
	if dir != "" {
		if err := s.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("loading topics: %w", err)
		}
	}

	slog.Info("topic configuration loaded", "topics", s.Len())
	return s, nil
}

// LoadDir walks dir and loads every YAML file as a topic configuration.
func (s *Store) LoadDir(dir string) error {
	return s.LoadFS(os.DirFS(dir), ".")
}

// LoadFS walks root within fsys and loads every YAML file found.
// Files that do not parse or validate are skipped with a warning.
func (s *Store) LoadFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		return s.loadTopic(path, data)
	})
}

func (s *Store) loadTopic(path string, data []byte) error {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("skipping invalid topic config", "path", path, "error", err)
		return nil
	}

	s.mu.Lock()
	s.configs[cfg.Topic] = cfg
	s.mu.Unlock()
	return nil
}

// Lookup returns the configuration for topic by exact match. When the topic
// is unknown it returns the DefaultTopic configuration and false.
func (s *Store) Lookup(topic string) (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cfg, ok := s.configs[strings.TrimSpace(topic)]; ok {
		return cfg, true
	}

	slog.Warn("no configuration for topic, using default",
		"topic", topic,
		"default", DefaultTopic,
	)
	if cfg, ok := s.configs[DefaultTopic]; ok {
		return cfg, false
	}
	return Config{Topic: DefaultTopic}, false
}

// Get returns the configuration for topic without falling back.
func (s *Store) Get(topic string) (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[strings.TrimSpace(topic)]
	return cfg, ok
}

// Put adds or replaces a topic configuration.
func (s *Store) Put(cfg Config) error {
	cfg.Topic = strings.TrimSpace(cfg.Topic)
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.configs[cfg.Topic] = cfg
	s.mu.Unlock()

	slog.Info("topic configuration updated", "topic", cfg.Topic)
	return nil
}

// Topics returns the configured topic names in sorted order.
func (s *Store) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of configured topics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.configs)
}
