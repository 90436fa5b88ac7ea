package vectorstore

import (
	"fmt"

	"webrag/internal/config"
	"webrag/internal/domain"
	"webrag/internal/vectorstore/memory"
	"webrag/internal/vectorstore/qdrant"
)

// Factory returns an empty store for one new index.
type Factory func() domain.VectorStore

// NewFactory builds the Factory selected by cfg.Type.
func NewFactory(cfg config.VectorStoreConfig) (Factory, error) {
	switch cfg.Type {
	case "memory", "":
		return func() domain.VectorStore { return memory.NewStorage() }, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:              cfg.Qdrant.URL,
			APIKey:           cfg.Qdrant.APIKey,
			CollectionPrefix: cfg.Qdrant.CollectionPrefix,
			Timeout:          config.Seconds(cfg.Qdrant.TimeoutSecs, 0),
		}
		return func() domain.VectorStore { return qdrant.NewStorage(qcfg) }, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}
