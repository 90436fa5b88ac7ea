package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"webrag/internal/domain"
)

// openAIClient talks to any OpenAI-compatible chat endpoint. The API key is
// read on first use so a missing key fails the first question, not startup.
type openAIClient struct {
	opts Options

	mu     sync.Mutex
	client *openai.Client
}

func NewOpenAIClient(opts Options) Client {
	return &openAIClient{opts: opts}
}

func (c *openAIClient) chatClient() (*openai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	key := os.Getenv(c.opts.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", c.opts.APIKeyEnv)
	}
	cfg := openai.DefaultConfig(key)
	if c.opts.BaseURL != "" {
		cfg.BaseURL = c.opts.BaseURL
	}
	if c.opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: c.opts.Timeout}
	}
	c.client = openai.NewClientWithConfig(cfg)
	return c.client, nil
}

func (c *openAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	client, err := c.chatClient()
	if err != nil {
		return "", domain.E(domain.KindConfig, "configure llm", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
	}
	req.Messages = make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", domain.E(domain.KindGeneration, "create chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.E(domain.KindGeneration, "create chat completion", errors.New("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}
