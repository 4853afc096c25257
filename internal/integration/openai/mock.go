package openai

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	mockDimension = 1536
	mockModel     = "mock-embedding"
)

// MockEmbeddingsConnector produces deterministic pseudo-embeddings so the
// full pipeline (including similarity ranking) works without a provider.
type MockEmbeddingsConnector struct {
	logger *zap.Logger
}

func NewMockEmbeddingsConnector(logger *zap.Logger) *MockEmbeddingsConnector {
	return &MockEmbeddingsConnector{logger: logger}
}

func (m *MockEmbeddingsConnector) Embed(ctx context.Context, text string) (entity.EmbeddingResult, error) {
	ctxzap.Debug(ctx, "[MOCK] generating embedding", zap.Int("text_length", len(text)))
	return entity.EmbeddingResult{
		Embedding: mockVector(text),
		Model:     mockModel,
	}, nil
}

func (m *MockEmbeddingsConnector) EmbedBatch(ctx context.Context, texts []string) ([]entity.EmbeddingResult, error) {
	ctxzap.Debug(ctx, "[MOCK] generating batch embeddings", zap.Int("count", len(texts)))

	results := make([]entity.EmbeddingResult, 0, len(texts))
	for _, text := range texts {
		results = append(results, entity.EmbeddingResult{
			Embedding: mockVector(text),
			Model:     mockModel,
		})
	}
	return results, nil
}

// mockVector derives a unit-norm vector from the text's hash. Identical
// texts always map to identical vectors.
func mockVector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, mockDimension)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>11)) / float64(1<<52)
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}

	return vec
}

// MockChatConnector returns a canned assistant reply.
type MockChatConnector struct {
	logger *zap.Logger
}

func NewMockChatConnector(logger *zap.Logger) *MockChatConnector {
	return &MockChatConnector{logger: logger}
}

func (m *MockChatConnector) Complete(ctx context.Context, system string, turns []entity.ChatTurn) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating completion",
		zap.Int("system_length", len(system)),
		zap.Int("turns", len(turns)),
	)
	return "Respuesta de prueba del asistente de estudio. Configura un proveedor real para obtener respuestas generadas.", nil
}
