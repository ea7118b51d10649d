// Package generate produces new vocabulary with an OpenAI-compatible chat
// model and runs the daily fetch job that stores it.
package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/config"
	"github.com/away0419/eunoia/internal/word"
)

// Generator suggests new (word, meaning) pairs for a category.
type Generator interface {
	Generate(ctx context.Context, category string, excluding []string) ([]word.Pair, error)
}

// Client is a Generator backed by a chat completion endpoint.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewClient returns a client for the configured provider.
func NewClient(cfg *config.Config, log logrus.FieldLogger) *Client {
	clientConfig := openai.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		clientConfig.BaseURL = cfg.AIBaseURL
	}
	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.AIModel,
		timeout: cfg.AITimeout(),
		log:     log,
	}
}

// Generate asks the model for up to MaxPairs new entries for category.
// Words in excluding are filtered from the reply even if the model repeats them.
func (c *Client) Generate(ctx context.Context, category string, excluding []string) ([]word.Pair, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "당신은 한국어 어휘 학습을 돕는 단어 추천 전문가입니다.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(category, excluding),
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty chat response")
	}

	pairs, err := ParsePairs(resp.Choices[0].Message.Content, excluding)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"category": category, "count": len(pairs)}).Debug("generated words")
	return pairs, nil
}
