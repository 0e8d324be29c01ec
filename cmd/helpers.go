package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/plateful/platefinder/internal/adapter"
	"github.com/plateful/platefinder/internal/audit"
	"github.com/plateful/platefinder/internal/compliance"
	"github.com/plateful/platefinder/internal/config"
	"github.com/plateful/platefinder/internal/db"
	"github.com/plateful/platefinder/internal/embeddings"
	"github.com/plateful/platefinder/internal/intent"
	"github.com/plateful/platefinder/internal/judge"
	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/pipeline"
	"github.com/plateful/platefinder/internal/recipestore"
	"github.com/plateful/platefinder/internal/resilience"
	"github.com/plateful/platefinder/internal/retrieval"
	"github.com/plateful/platefinder/internal/session"
	"github.com/plateful/platefinder/internal/websearch"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `platefinder init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider, cfg.Quality).EmbeddingModel
	}

	switch provider {
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// Anthropic has no embeddings API; OpenAI embeddings cover it.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, model), nil
	}
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		return llm.NewRateLimited(provider, cfg.RequestsPerMinute), nil
	}
	return provider, nil
}

// openIndex creates the vector index and loads any persisted state from the
// data directory. A missing index is not an error; searches just come up
// empty until `platefinder ingest` runs.
func openIndex(ctx context.Context, cfg *config.Config) (*recipestore.ChromemStore, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := recipestore.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating recipe index: %w", err)
	}

	indexDir := filepath.Join(cfg.DataDir, "index")
	if _, err := os.Stat(indexDir); err == nil {
		if err := store.Load(ctx, indexDir); err != nil {
			return nil, fmt.Errorf("loading recipe index from %s: %w", indexDir, err)
		}
	}
	return store, nil
}

// openSessions opens the session database under the data directory.
func openSessions(cfg *config.Config) (*db.DB, *session.Manager, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening session database: %w", err)
	}
	return database, session.NewManager(session.NewSQLiteStore(database)), nil
}

// buildOrchestrator wires the full pipeline from config. The returned
// closer owns the session database.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*pipeline.Orchestrator, func() error, error) {
	orch, _, closer, err := buildPipeline(ctx, cfg)
	return orch, closer, err
}

// buildPipeline is buildOrchestrator plus the run log store, for the serve
// command which also mounts the log's HTTP routes.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Orchestrator, *audit.Store, func() error, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	database, sessions, err := openSessions(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	retrier := resilience.Default()

	var fallback *websearch.Searcher
	if cfg.WebSearch.Enabled {
		apiKey := os.Getenv("TAVILY_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "Warning: web search enabled but TAVILY_API_KEY is not set; fallback disabled")
		} else {
			fallback = websearch.NewSearcher(websearch.NewTavilyClient(apiKey), provider, cfg.Model, retrier)
			fallback.SetMaxResults(cfg.WebSearch.MaxResults)
		}
	}

	orch := pipeline.New(
		intent.NewExtractor(provider, cfg.Model, retrier),
		retrieval.New(store, retrier, cfg.RetrievalK),
		judge.New(provider, cfg.Model, retrier),
		fallback,
		adapter.New(provider, cfg.Model, retrier),
		compliance.New(provider, cfg.Model, retrier),
		sessions,
		time.Duration(cfg.StageTimeoutSeconds)*time.Second,
	)

	runLog := audit.NewStore(database)
	orch.SetRunLog(runLog)

	return orch, runLog, database.Close, nil
}
