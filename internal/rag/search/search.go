// Package search ranks stored chunks against a query. The primary
// strategy delegates ranking to Postgres/pgvector; when that fails the
// ranking is recomputed in-process over the raw rows.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/rag/similarity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// Embedder turns a query into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (entity.EmbeddingResult, error)
}

// ChunkStore is the persistence surface the searcher needs. studentID may
// be empty, meaning no owner filter.
type ChunkStore interface {
	SearchSimilar(ctx context.Context, query pgvector.Vector, studentID string, threshold float64, limit int) ([]entity.SimilarChunk, error)
	ListWithEmbeddings(ctx context.Context, studentID string) ([]entity.ChunkWithDocument, error)
}

type Searcher struct {
	embedder Embedder
	store    ChunkStore
}

func NewSearcher(embedder Embedder, store ChunkStore) *Searcher {
	return &Searcher{
		embedder: embedder,
		store:    store,
	}
}

// strategy is one ranking attempt. Strategies are tried in order; the
// first success wins, which keeps the fallback order testable.
type strategy struct {
	name string
	run  func(ctx context.Context) ([]entity.SimilarChunk, error)
}

// Search returns at most topK chunks with similarity >= minSimilarity,
// ordered by descending similarity. An empty result is not an error; only
// an embedding failure or the failure of every strategy is.
func (s *Searcher) Search(ctx context.Context, query, studentID string, topK int, minSimilarity float64) ([]entity.SimilarChunk, error) {
	embedded, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	queryVec := embedded.Embedding

	strategies := []strategy{
		{
			name: "pgvector",
			run: func(ctx context.Context) ([]entity.SimilarChunk, error) {
				return s.store.SearchSimilar(ctx, pgvector.NewVector(queryVec), studentID, minSimilarity, topK)
			},
		},
		{
			name: "in-process",
			run: func(ctx context.Context) ([]entity.SimilarChunk, error) {
				return s.searchInProcess(ctx, queryVec, studentID, topK, minSimilarity)
			},
		},
	}

	var errs []error
	for _, st := range strategies {
		hits, err := st.run(ctx)
		if err == nil {
			return hits, nil
		}
		ctxzap.Warn(ctx, "search strategy failed",
			zap.String("strategy", st.name),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
	}

	return nil, fmt.Errorf("all search strategies failed: %w", errors.Join(errs...))
}

// searchInProcess loads every candidate row and ranks it here. Rows whose
// stored vector does not match the query dimension are skipped, not fatal.
func (s *Searcher) searchInProcess(ctx context.Context, queryVec []float32, studentID string, topK int, minSimilarity float64) ([]entity.SimilarChunk, error) {
	rows, err := s.store.ListWithEmbeddings(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	hits := make([]entity.SimilarChunk, 0, len(rows))
	for _, row := range rows {
		if !row.HasEmbedding() {
			continue
		}

		sim, err := similarity.Cosine(queryVec, row.Embedding.Slice())
		if err != nil {
			ctxzap.Warn(ctx, "skipping malformed chunk embedding",
				zap.String("chunk_id", row.ID),
				zap.Error(err),
			)
			continue
		}

		if sim >= minSimilarity {
			hits = append(hits, entity.SimilarChunk{
				ChunkID:       row.ID,
				DocumentID:    row.DocumentID,
				Content:       row.Content,
				Similarity:    sim,
				DocumentTitle: row.DocumentTitle,
				ChunkIndex:    row.ChunkIndex,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	return hits, nil
}
