package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/integration/common"
	pkghttp "github.com/estudia/study-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ChatConnector talks to an OpenAI-compatible chat-completions endpoint.
type ChatConnector struct {
	config    config.ChatModelConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewChatConnector(cfg config.ChatModelConnectorConfig, logger *zap.Logger) *ChatConnector {
	return &ChatConnector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the system instruction plus the running conversation and
// returns the model's single text completion.
func (c *ChatConnector) Complete(ctx context.Context, system string, turns []entity.ChatTurn) (string, error) {
	messages := make([]completionMessage, 0, len(turns)+1)
	messages = append(messages, completionMessage{Role: string(entity.RoleSystem), Content: system})
	for _, turn := range turns {
		messages = append(messages, completionMessage{Role: string(turn.Role), Content: turn.Content})
	}

	req := completionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	resp, err := retry.DoWithData(func() (*completionResponse, error) {
		var out completionResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.CompletionsEndpoint, req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion returned no content")
	}

	answer := resp.Choices[0].Message.Content

	ctxzap.Info(ctx, "completion generated",
		zap.Int("turns", len(turns)),
		zap.Int("answer_length", len(answer)),
	)

	return answer, nil
}
