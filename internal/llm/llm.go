package llm

import (
	"context"
	"fmt"
	"time"

	"webrag/internal/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Client performs a single, stateless chat completion.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

type Options struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

func NewClient(cfg config.LLMConfig) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model not configured")
	}
	return NewOpenAIClient(Options{
		BaseURL:     cfg.BaseURL,
		APIKeyEnv:   cfg.APIKeyEnv,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     config.Seconds(cfg.TimeoutSecs, 60*time.Second),
	}), nil
}
