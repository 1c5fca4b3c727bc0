package generation

import (
	"log/slog"

	"github.com/execcoach/coach/internal/config"
)

// NewProvider creates a generation provider based on configuration.
// Without a Gemini key every call fails fast and callers use fallback text.
func NewProvider(cfg *config.Config) Provider {
	if cfg.GeminiAPIKey == "" {
		slog.Warn("gemini disabled, no api key provided")
		return unavailableProvider{}
	}

	provider, err := NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("gemini configuration failed", "error", err)
		return unavailableProvider{}
	}

	slog.Info("initializing generation provider", "provider", provider.Name(), "model", cfg.GeminiModel)
	return provider
}
