package chat

import (
	"context"

	"github.com/estudia/study-backend/internal/entity"
)

type ChatModelConnector interface {
	Complete(ctx context.Context, system string, turns []entity.ChatTurn) (string, error)
}

type ChunkSearcher interface {
	Search(ctx context.Context, query, studentID string, topK int, minSimilarity float64) ([]entity.SimilarChunk, error)
}
