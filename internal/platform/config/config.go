// Package config loads application configuration from environment variables.
// All variables use the GANITHA_ prefix.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by Validate when no model provider key is set.
var ErrMissingAPIKey = errors.New("GANITHA_AI_GEMINI_API_KEY or GANITHA_AI_OPENAI_API_KEY is required")

// Archive backends.
const (
	ArchiveMemory   = "memory"
	ArchivePostgres = "postgres"
	ArchiveRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	AI         AIConfig
	Generation GenerationConfig
	Corpus     CorpusConfig
	Retriever  RetrieverConfig
	Archive    ArchiveConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Host            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL disables
// the database.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
	Migrate  bool
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables the cache.
type CacheConfig struct {
	URL string
	// Prefix namespaces every key so several deployments can share a server.
	Prefix string
}

// AIConfig holds model provider settings.
type AIConfig struct {
	Gemini GeminiConfig
	OpenAI OpenAIConfig
	// DailyTokenBudget caps tokens per day across providers; 0 is unlimited.
	DailyTokenBudget int64
}

// GeminiConfig holds the primary provider settings.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIConfig holds an optional OpenAI-compatible fallback provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GenerationConfig holds the accumulation loop settings.
type GenerationConfig struct {
	RateInterval time.Duration // minimum spacing between model calls
	Delay        time.Duration // default inter-batch delay for paper sections
	Deadline     time.Duration // per-request ceiling; 0 disables
}

// CorpusConfig locates the reference corpus and topic configuration.
type CorpusConfig struct {
	Path      string
	TopicsDir string
}

// RetrieverConfig holds the lesson grounding index settings. An empty Dir
// disables retrieval.
type RetrieverConfig struct {
	Dir            string
	Embeddings     bool
	EmbeddingURL   string
	EmbeddingModel string
}

// ArchiveConfig selects where generated papers are kept.
type ArchiveConfig struct {
	Backend string
	TTL     time.Duration // redis only
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with GANITHA_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("GANITHA_SERVER_PORT", 8080),
			Host:            envStr("GANITHA_SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: envDuration("GANITHA_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:      envStr("GANITHA_DATABASE_URL", ""),
			MaxConns: envInt("GANITHA_DATABASE_MAX_CONNS", 4),
			MinConns: envInt("GANITHA_DATABASE_MIN_CONNS", 0),
			Migrate:  envBool("GANITHA_DATABASE_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL:    envStr("GANITHA_CACHE_URL", ""),
			Prefix: envStr("GANITHA_CACHE_PREFIX", "ganitha"),
		},
		AI: AIConfig{
			Gemini: GeminiConfig{
				APIKey:  envStr("GANITHA_AI_GEMINI_API_KEY", ""),
				Model:   envStr("GANITHA_AI_GEMINI_MODEL", "gemini-2.5-flash"),
				BaseURL: envStr("GANITHA_AI_GEMINI_BASE_URL", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey:  envStr("GANITHA_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("GANITHA_AI_OPENAI_BASE_URL", ""),
				Model:   envStr("GANITHA_AI_OPENAI_MODEL", ""),
			},
			DailyTokenBudget: envInt64("GANITHA_AI_DAILY_TOKEN_BUDGET", 0),
		},
		Generation: GenerationConfig{
			RateInterval: envDuration("GANITHA_GENERATION_RATE_INTERVAL", 2*time.Second),
			Delay:        envDuration("GANITHA_GENERATION_DELAY", 4*time.Second),
			Deadline:     envDuration("GANITHA_GENERATION_DEADLINE", 0),
		},
		Corpus: CorpusConfig{
			Path:      envStr("GANITHA_CORPUS_PATH", "./data/questions.json"),
			TopicsDir: envStr("GANITHA_TOPICS_DIR", ""),
		},
		Retriever: RetrieverConfig{
			Dir:            envStr("GANITHA_RETRIEVER_DIR", ""),
			Embeddings:     envBool("GANITHA_RETRIEVER_EMBEDDINGS", true),
			EmbeddingURL:   envStr("GANITHA_RETRIEVER_EMBEDDING_URL", "http://localhost:11434"),
			EmbeddingModel: envStr("GANITHA_RETRIEVER_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Archive: ArchiveConfig{
			Backend: strings.ToLower(envStr("GANITHA_ARCHIVE_BACKEND", ArchiveMemory)),
			TTL:     envDuration("GANITHA_ARCHIVE_TTL", 7*24*time.Hour),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envStr("GANITHA_LOG_LEVEL", "info")),
			Format: strings.ToLower(envStr("GANITHA_LOG_FORMAT", "json")),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return ErrMissingAPIKey
	}
	return c.validateSettings()
}

// ValidateOffline is Validate without the provider requirement, for
// commands that never call the model.
func (c *Config) ValidateOffline() error {
	return c.validateSettings()
}

func (c *Config) validateSettings() error {
	switch c.Archive.Backend {
	case ArchiveMemory:
	case ArchivePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("GANITHA_ARCHIVE_BACKEND=postgres requires GANITHA_DATABASE_URL")
		}
	case ArchiveRedis:
		if c.Cache.URL == "" {
			return fmt.Errorf("GANITHA_ARCHIVE_BACKEND=redis requires GANITHA_CACHE_URL")
		}
	default:
		return fmt.Errorf("GANITHA_ARCHIVE_BACKEND must be 'memory', 'postgres' or 'redis', got %q", c.Archive.Backend)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("GANITHA_LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("GANITHA_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if c.Generation.RateInterval < 0 {
		return fmt.Errorf("GANITHA_GENERATION_RATE_INTERVAL must not be negative")
	}
	if c.Generation.Delay < 2*time.Second || c.Generation.Delay > 10*time.Second {
		return fmt.Errorf("GANITHA_GENERATION_DELAY must be between 2s and 10s, got %s", c.Generation.Delay)
	}
	if c.AI.DailyTokenBudget < 0 {
		return fmt.Errorf("GANITHA_AI_DAILY_TOKEN_BUDGET must not be negative")
	}
	return nil
}

// HasAIProvider returns true if at least one model provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Gemini.APIKey != "" || c.AI.OpenAI.APIKey != ""
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go durations ("1500ms", "2s") or whole seconds ("4").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second
	}
	return fallback
}
