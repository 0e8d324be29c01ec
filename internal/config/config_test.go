package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := DefaultConfig()
	if cfg.Provider != def.Provider || cfg.Model != def.Model {
		t.Fatalf("got %s/%s, want defaults %s/%s", cfg.Provider, cfg.Model, def.Provider, def.Model)
	}
	if cfg.RetrievalK != def.RetrievalK {
		t.Fatalf("retrieval_k = %d, want default %d", cfg.RetrievalK, def.RetrievalK)
	}
	if !cfg.WebSearch.Enabled {
		t.Fatal("web search should be enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".platefinder.yml")
	content := `provider: anthropic
model: claude-sonnet-4-5-20250929
data_dir: /var/lib/platefinder
retrieval_k: 15
web_search:
  enabled: false
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Fatalf("provider = %q", cfg.Provider)
	}
	if cfg.DataDir != "/var/lib/platefinder" {
		t.Fatalf("data_dir = %q", cfg.DataDir)
	}
	if cfg.RetrievalK != 15 {
		t.Fatalf("retrieval_k = %d", cfg.RetrievalK)
	}
	if cfg.WebSearch.Enabled {
		t.Fatal("web_search.enabled should be false")
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("server.port = %d", cfg.Server.Port)
	}
	// Unset fields keep their defaults.
	if cfg.EmbeddingModel != DefaultConfig().EmbeddingModel {
		t.Fatalf("embedding_model = %q, want default", cfg.EmbeddingModel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PLATEFINDER_PROVIDER", "ollama")
	t.Setenv("PLATEFINDER_MODEL", "llama3")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Fatalf("provider = %q, want env override", cfg.Provider)
	}
	if cfg.Model != "llama3" {
		t.Fatalf("model = %q, want env override", cfg.Model)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".platefinder.yml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderAnthropic
	cfg.Model = "claude-sonnet-4-5-20250929"
	cfg.RecipePatterns = []string{"box/**/*.yml"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Provider != cfg.Provider || loaded.Model != cfg.Model {
		t.Fatalf("round trip lost provider/model: %s/%s", loaded.Provider, loaded.Model)
	}
	if len(loaded.RecipePatterns) != 1 || loaded.RecipePatterns[0] != "box/**/*.yml" {
		t.Fatalf("round trip lost recipe patterns: %v", loaded.RecipePatterns)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"missing provider", func(c *Config) { c.Provider = "" }, true},
		{"unknown provider", func(c *Config) { c.Provider = "watson" }, true},
		{"missing model", func(c *Config) { c.Model = "" }, true},
		{"bad quality", func(c *Config) { c.Quality = "ultra" }, true},
		{"missing data dir", func(c *Config) { c.DataDir = "" }, true},
		{"negative k", func(c *Config) { c.RetrievalK = -1 }, true},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestGetPresetFallback(t *testing.T) {
	preset := GetPreset("unknown", QualityMax)
	want := qualityPresets[ProviderOpenAI][QualityNormal]
	if preset != want {
		t.Fatalf("fallback preset = %+v, want %+v", preset, want)
	}
}
