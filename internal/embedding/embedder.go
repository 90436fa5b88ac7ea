package embedding

import (
	"fmt"

	"webrag/internal/config"
	"webrag/internal/domain"
	"webrag/internal/embedding/openai"
	"webrag/internal/embedding/tfidf"
)

// Factory returns the embedder for one new index. Corpus-fitted embedders get a
// fresh instance per call; remote embedders are shared.
type Factory func() domain.Embedder

// NewFactory builds the Factory selected by cfg.Type.
func NewFactory(cfg config.EmbedderConfig) (Factory, error) {
	switch cfg.Type {
	case "tfidf", "":
		return func() domain.Embedder { return tfidf.NewEmbedder() }, nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   config.Seconds(cfg.OpenAI.TimeoutSecs, 0),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return func() domain.Embedder { return client }, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}
