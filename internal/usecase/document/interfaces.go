package document

import (
	"context"

	"github.com/estudia/study-backend/internal/entity"
)

type EmbeddingsConnector interface {
	Embed(ctx context.Context, text string) (entity.EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) ([]entity.EmbeddingResult, error)
}

type ChatModelConnector interface {
	Complete(ctx context.Context, system string, turns []entity.ChatTurn) (string, error)
}

type ChunkSearcher interface {
	Search(ctx context.Context, query, studentID string, topK int, minSimilarity float64) ([]entity.SimilarChunk, error)
}
