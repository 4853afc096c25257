package search

import (
	"context"
	"errors"
	"testing"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) (entity.EmbeddingResult, error) {
	if f.err != nil {
		return entity.EmbeddingResult{}, f.err
	}
	return entity.EmbeddingResult{Embedding: f.vector, Model: "test-model"}, nil
}

type fakeChunkStore struct {
	vectorHits []entity.SimilarChunk
	vectorErr  error
	rows       []entity.ChunkWithDocument
	rowsErr    error
}

func (f *fakeChunkStore) SearchSimilar(context.Context, pgvector.Vector, string, float64, int) ([]entity.SimilarChunk, error) {
	return f.vectorHits, f.vectorErr
}

func (f *fakeChunkStore) ListWithEmbeddings(context.Context, string) ([]entity.ChunkWithDocument, error) {
	return f.rows, f.rowsErr
}

func row(id string, vec []float32, content string) entity.ChunkWithDocument {
	v := pgvector.NewVector(vec)
	return entity.ChunkWithDocument{
		Chunk: entity.Chunk{
			ID:         id,
			DocumentID: "doc-" + id,
			Content:    content,
			Embedding:  &v,
		},
		DocumentTitle: "Documento " + id,
	}
}

func TestSearchUsesVectorStoreFirst(t *testing.T) {
	store := &fakeChunkStore{
		vectorHits: []entity.SimilarChunk{{ChunkID: "c1", Similarity: 0.9}},
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	hits, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.7)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestSearchFallsBackToInProcess(t *testing.T) {
	store := &fakeChunkStore{
		vectorErr: errors.New("operator does not exist: vector <=> vector"),
		rows: []entity.ChunkWithDocument{
			row("c1", []float32{1, 0}, "coincide"),
			row("c2", []float32{0, 1}, "ortogonal"),
		},
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	hits, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.7)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestSearchAllStrategiesFail(t *testing.T) {
	store := &fakeChunkStore{
		vectorErr: errors.New("vector query failed"),
		rowsErr:   errors.New("db down"),
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	_, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.7)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all search strategies failed")
}

func TestSearchEmbeddingFailureIsFatal(t *testing.T) {
	s := NewSearcher(&fakeEmbedder{err: errors.New("provider down")}, &fakeChunkStore{})

	_, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.7)

	assert.Error(t, err)
}

func TestInProcessOrdersByDescendingSimilarity(t *testing.T) {
	store := &fakeChunkStore{
		vectorErr: errors.New("unavailable"),
		rows: []entity.ChunkWithDocument{
			row("low", []float32{0.5, 0.5}, "parcial"),
			row("high", []float32{1, 0}, "exacto"),
		},
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	hits, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.5)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "high", hits[0].ChunkID)
	assert.Equal(t, "low", hits[1].ChunkID)
}

func TestInProcessHonorsTopK(t *testing.T) {
	store := &fakeChunkStore{
		vectorErr: errors.New("unavailable"),
		rows: []entity.ChunkWithDocument{
			row("c1", []float32{1, 0}, "a"),
			row("c2", []float32{1, 0}, "b"),
			row("c3", []float32{1, 0}, "c"),
		},
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	hits, err := s.Search(context.Background(), "consulta", "student-1", 2, 0.5)

	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestInProcessSkipsChunksWithoutEmbedding(t *testing.T) {
	bare := entity.ChunkWithDocument{Chunk: entity.Chunk{ID: "sin-vector", Content: "x"}}
	store := &fakeChunkStore{
		vectorErr: errors.New("unavailable"),
		rows:      []entity.ChunkWithDocument{bare, row("c1", []float32{1, 0}, "ok")},
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	hits, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.5)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestInProcessSkipsDimensionMismatch(t *testing.T) {
	store := &fakeChunkStore{
		vectorErr: errors.New("unavailable"),
		rows: []entity.ChunkWithDocument{
			row("malformed", []float32{1, 0, 0}, "tres dimensiones"),
			row("c1", []float32{1, 0}, "ok"),
		},
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	hits, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.5)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestInProcessEmptyResultIsNotAnError(t *testing.T) {
	store := &fakeChunkStore{
		vectorErr: errors.New("unavailable"),
		rows:      []entity.ChunkWithDocument{row("c1", []float32{0, 1}, "lejano")},
	}
	s := NewSearcher(&fakeEmbedder{vector: []float32{1, 0}}, store)

	hits, err := s.Search(context.Background(), "consulta", "student-1", 5, 0.7)

	require.NoError(t, err)
	assert.Empty(t, hits)
}
