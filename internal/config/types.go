package config

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level platefinder configuration, corresponding to
// .platefinder.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	Quality           QualityTier  `yaml:"quality" koanf:"quality"`

	// DataDir holds the recipe index and the session database.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	// RecipePatterns are the globs the ingest command scans for recipe files.
	RecipePatterns []string `yaml:"recipe_patterns" koanf:"recipe_patterns"`

	// RetrievalK is how many index matches each search pulls before judging.
	RetrievalK int `yaml:"retrieval_k" koanf:"retrieval_k"`

	// StageTimeoutSeconds bounds each pipeline stage. 0 uses the built-in
	// default.
	StageTimeoutSeconds int `yaml:"stage_timeout_seconds" koanf:"stage_timeout_seconds"`

	// RequestsPerMinute caps LLM calls across all concurrent stages.
	// 0 disables the cap.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	WebSearch WebSearchConfig `yaml:"web_search" koanf:"web_search"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
}

// WebSearchConfig controls the fallback search path.
type WebSearchConfig struct {
	// Enabled gates the web fallback entirely. The TAVILY_API_KEY
	// environment variable must be set when enabled.
	Enabled    bool `yaml:"enabled" koanf:"enabled"`
	MaxResults int  `yaml:"max_results" koanf:"max_results"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}
