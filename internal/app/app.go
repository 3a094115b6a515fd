// Package app assembles the generation engine and its optional backing
// services from configuration. Both binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/p-n-ai/ganitha/internal/ai"
	"github.com/p-n-ai/ganitha/internal/archive"
	"github.com/p-n-ai/ganitha/internal/corpus"
	"github.com/p-n-ai/ganitha/internal/generator"
	"github.com/p-n-ai/ganitha/internal/jobs"
	"github.com/p-n-ai/ganitha/internal/platform/cache"
	"github.com/p-n-ai/ganitha/internal/platform/config"
	"github.com/p-n-ai/ganitha/internal/platform/database"
	"github.com/p-n-ai/ganitha/internal/ratelimit"
	"github.com/p-n-ai/ganitha/internal/retriever"
	"github.com/p-n-ai/ganitha/internal/server"
	"github.com/p-n-ai/ganitha/internal/topics"
)

// budgetScope is the token budget key shared by every provider.
const budgetScope = "daily"

// App holds the wired components.
type App struct {
	Config  *config.Config
	DB      *database.DB // nil when no database is configured
	Cache   *cache.Cache // nil when no cache is configured
	Router  *ai.Router
	Engine  *generator.Engine
	Archive archive.Store
	Jobs    *jobs.Manager
}

// ParseLevel maps a configured level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger.
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// New connects the configured services and builds the engine. On error,
// anything already opened is closed.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg, Jobs: jobs.NewManager()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Database.URL != "" {
		a.DB, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if cfg.Database.Migrate {
			if err = a.DB.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("migrating database: %w", err)
			}
		}
	}
	if cfg.Cache.URL != "" {
		a.Cache, err = cache.New(ctx, cfg.Cache.URL, cfg.Cache.Prefix)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
	}

	a.Router, err = newRouter(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}
	var provider ai.Provider = a.Router
	if cfg.AI.DailyTokenBudget > 0 {
		provider = ai.WithBudget(a.Router, a.budget(cfg.AI.DailyTokenBudget), budgetScope)
		slog.Info("daily token budget enabled", "tokens", cfg.AI.DailyTokenBudget)
	}

	store, err := topics.NewDefaultStore(cfg.Corpus.TopicsDir)
	if err != nil {
		return nil, err
	}

	c := corpus.New()
	if !c.Load(cfg.Corpus.Path) {
		slog.Warn("reference corpus unavailable, generation will be refused until reloaded", "path", cfg.Corpus.Path)
	}

	rt, err := newRetriever(ctx, cfg.Retriever)
	if err != nil {
		return nil, err
	}

	a.Archive, err = a.newArchive(cfg.Archive)
	if err != nil {
		return nil, err
	}

	var events generator.EventLogger = generator.NopEventLogger{}
	if a.DB != nil {
		events = generator.NewPostgresEventLogger(a.DB.Pool)
	}

	a.Engine = generator.NewEngine(generator.EngineConfig{
		Provider:  provider,
		Limiter:   ratelimit.New(cfg.Generation.RateInterval),
		Corpus:    c,
		Topics:    store,
		Retriever: rt,
		Events:    events,
		Model:     cfg.AI.Gemini.Model,
		Deadline:  cfg.Generation.Deadline,
	})
	return a, nil
}

func newRouter(ctx context.Context, cfg config.AIConfig) (*ai.Router, error) {
	router := ai.NewRouter()

	if cfg.Gemini.APIKey != "" {
		opts := []ai.GoogleOption{ai.WithGoogleModel(cfg.Gemini.Model)}
		if cfg.Gemini.BaseURL != "" {
			opts = append(opts, ai.WithGoogleBaseURL(cfg.Gemini.BaseURL))
		}
		p, err := ai.NewGoogleProvider(ctx, cfg.Gemini.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating gemini provider: %w", err)
		}
		router.Register("gemini", p)
		slog.Info("AI provider registered", "provider", "gemini", "model", p.Model())
	}

	if cfg.OpenAI.APIKey != "" {
		opts := []ai.OpenAIOption{ai.WithProviderName("openai")}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		if cfg.OpenAI.Model != "" {
			opts = append(opts, ai.WithModel(cfg.OpenAI.Model))
		}
		p, err := ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating openai provider: %w", err)
		}
		router.Register("openai", p)
		slog.Info("AI provider registered", "provider", "openai")
	}

	if !router.HasProvider() {
		slog.Warn("no AI provider configured")
	}
	return router, nil
}

// budget keeps usage in the cache when there is one so restarts and
// replicas share the day's total.
func (a *App) budget(tokens int64) ai.BudgetChecker {
	if a.Cache != nil {
		return ai.NewRedisBudget(a.Cache.Client, map[string]int64{budgetScope: tokens})
	}
	b := ai.NewInMemoryBudget()
	b.SetBudget(budgetScope, tokens)
	return b
}

func newRetriever(ctx context.Context, cfg config.RetrieverConfig) (retriever.Retriever, error) {
	if cfg.Dir == "" {
		return retriever.Nop{}, nil
	}
	var embedder retriever.Embedder
	if cfg.Embeddings {
		embedder = retriever.NewOllamaEmbedder(cfg.EmbeddingURL, cfg.EmbeddingModel)
	}
	ix := retriever.NewIndex(embedder)
	if _, err := ix.LoadDir(ctx, cfg.Dir); err != nil {
		return nil, fmt.Errorf("loading retriever index: %w", err)
	}
	return ix, nil
}

func (a *App) newArchive(cfg config.ArchiveConfig) (archive.Store, error) {
	switch cfg.Backend {
	case config.ArchivePostgres:
		if a.DB == nil {
			return nil, errors.New("postgres archive requires GANITHA_DATABASE_URL")
		}
		return archive.NewPostgresStore(a.DB.Pool), nil
	case config.ArchiveRedis:
		if a.Cache == nil {
			return nil, errors.New("redis archive requires GANITHA_CACHE_URL")
		}
		return archive.NewRedisStore(a.Cache, cfg.TTL), nil
	default:
		return archive.NewMemoryStore(), nil
	}
}

// Checks returns the readiness probes of the configured services.
func (a *App) Checks() map[string]server.Check {
	checks := make(map[string]server.Check)
	if a.DB != nil {
		checks["database"] = a.DB.HealthCheck
	}
	if a.Cache != nil {
		checks["cache"] = a.Cache.HealthCheck
	}
	return checks
}

// Server builds the HTTP API over the wired components.
func (a *App) Server() *server.Server {
	return server.New(server.Config{
		Engine:  a.Engine,
		Jobs:    a.Jobs,
		Archive: a.Archive,
		Checks:  a.Checks(),
		Delay:   a.Config.Generation.Delay,
	})
}

// Close releases database and cache connections.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Warn("closing cache", "error", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
