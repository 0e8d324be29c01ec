package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .platefinder.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to platefinder! Let's configure your kitchen.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   - fast & cheap (haiku / gpt-4o-mini)",
			"normal - balanced (sonnet / gpt-4o)",
			"max    - highest quality (opus / gpt-4)",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	preset := GetPreset(provider, quality)

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the recipe index and sessions",
		Default: ".platefinder",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Recipe file patterns.
	patternsPrompt := promptui.Prompt{
		Label:   "Recipe file patterns (comma-separated globs)",
		Default: "recipes/**/*.json",
	}
	patternsStr, err := patternsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("recipe patterns: %w", err)
	}
	patterns := splitAndTrim(patternsStr)
	if len(patterns) == 0 {
		patterns = DefaultRecipePatterns
	}

	// 5. Web fallback.
	webPrompt := promptui.Select{
		Label: "Enable web search fallback when the local index has no match",
		Items: []string{"yes", "no"},
	}
	webIdx, _, err := webPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("web search selection: %w", err)
	}

	// Build the config.
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = preset.Model
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.Quality = quality
	cfg.DataDir = dataDir
	cfg.RecipePatterns = patterns
	cfg.WebSearch.Enabled = webIdx == 0

	// Check for API keys.
	if envVar := APIKeyEnvVar(provider); envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running platefinder.\n", envVar)
		}
	}
	if cfg.WebSearch.Enabled && os.Getenv("TAVILY_API_KEY") == "" {
		fmt.Println("Note: Set TAVILY_API_KEY in your environment to use the web fallback.")
	}

	// Save to .platefinder.yml.
	configPath := ".platefinder.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			token := trimSpace(s[start:i])
			if token != "" {
				result = append(result, token)
			}
			start = i + 1
		}
	}
	return result
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}
