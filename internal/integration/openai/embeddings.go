package openai

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/avast/retry-go/v4"
	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/integration/common"
	pkghttp "github.com/estudia/study-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// EmbeddingsConnector talks to an OpenAI-compatible embeddings endpoint.
// Single-query embeddings are cached for a while: the same question asked
// twice should not cost two provider calls.
type EmbeddingsConnector struct {
	config    config.EmbeddingsConnectorConfig
	connector *pkghttp.Connector
	cache     *gocache.Cache
	logger    *zap.Logger
}

func NewEmbeddingsConnector(cfg config.EmbeddingsConnectorConfig, logger *zap.Logger) *EmbeddingsConnector {
	return &EmbeddingsConnector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		cache:     gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
	}
}

type embeddingsRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed returns one vector for the given text.
func (c *EmbeddingsConnector) Embed(ctx context.Context, text string) (entity.EmbeddingResult, error) {
	if cached, ok := c.cache.Get(text); ok {
		return cached.(entity.EmbeddingResult), nil
	}

	results, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return entity.EmbeddingResult{}, err
	}

	c.cache.SetDefault(text, results[0])
	return results[0], nil
}

// EmbedBatch embeds several texts in one provider call. The result is
// ordered 1:1 with the input and never silently shorter.
func (c *EmbeddingsConnector) EmbedBatch(ctx context.Context, texts []string) ([]entity.EmbeddingResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embeddingsRequest{
		Model:          c.config.Model,
		Input:          texts,
		EncodingFormat: "float",
	}

	resp, err := retry.DoWithData(func() (*embeddingsResponse, error) {
		var out embeddingsResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.EmbeddingsEndpoint, req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingFailed, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: provider returned %d embeddings for %d inputs",
			entity.ErrEmbeddingFailed, len(resp.Data), len(texts))
	}

	// The provider tags each item with its input index; order by it so
	// the result lines up with the input.
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	results := make([]entity.EmbeddingResult, 0, len(resp.Data))
	for _, item := range resp.Data {
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("%w: provider returned an empty vector", entity.ErrEmbeddingFailed)
		}
		results = append(results, entity.EmbeddingResult{
			Embedding: item.Embedding,
			Model:     c.config.Model,
		})
	}

	ctxzap.Debug(ctx, "embeddings generated",
		zap.Int("count", len(results)),
		zap.Int("dimension", len(results[0].Embedding)),
	)

	return results, nil
}
