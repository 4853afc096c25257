package repository

import (
	"context"
	"fmt"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository defines the interface for chunk persistence and the
// vector-native ranked similarity query.
type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []entity.Chunk) error
	GetByDocument(ctx context.Context, documentID string) ([]entity.Chunk, error)
	ListWithEmbeddings(ctx context.Context, studentID string) ([]entity.ChunkWithDocument, error)
	UpdateEmbedding(ctx context.Context, chunkID string, embedding pgvector.Vector, model string) error
	SearchSimilar(ctx context.Context, query pgvector.Vector, studentID string, threshold float64, limit int) ([]entity.SimilarChunk, error)
	Stats(ctx context.Context) (*entity.EmbeddingStats, error)
}

var _ ChunkRepository = &ChunkPostgres{}

// ChunkPostgres implements ChunkRepository using PostgreSQL with pgvector
type ChunkPostgres struct {
	db *pgxpool.Pool
}

func NewChunkPostgres(db *pgxpool.Pool) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

func (r *ChunkPostgres) CreateBatch(ctx context.Context, chunks []entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		id, err := parseUUID(chunk.ID)
		if err != nil {
			return err
		}
		documentID, err := parseUUID(chunk.DocumentID)
		if err != nil {
			return err
		}

		batch.Queue(`
			INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding, embedding_model)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, documentID, chunk.ChunkIndex, chunk.Content, chunk.Embedding, chunk.EmbeddingModel,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	return nil
}

func (r *ChunkPostgres) GetByDocument(ctx context.Context, documentID string) ([]entity.Chunk, error) {
	id, err := parseUUID(documentID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, chunk_index, content, embedding, embedding_model, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index`, id)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []entity.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, *chunk)
	}

	return chunks, rows.Err()
}

func (r *ChunkPostgres) ListWithEmbeddings(ctx context.Context, studentID string) ([]entity.ChunkWithDocument, error) {
	owner, err := optionalUUID(studentID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT dc.id, dc.document_id, dc.chunk_index, dc.content, dc.embedding, dc.embedding_model, dc.created_at,
		       d.title
		FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		WHERE dc.embedding IS NOT NULL
		  AND ($1::uuid IS NULL OR d.student_id = $1)
		ORDER BY dc.document_id, dc.chunk_index`, owner)
	if err != nil {
		return nil, fmt.Errorf("list chunks with embeddings: %w", err)
	}
	defer rows.Close()

	var result []entity.ChunkWithDocument
	for rows.Next() {
		var row entity.ChunkWithDocument
		var id, documentID pgtype.UUID
		var embedding pgvector.Vector

		err := rows.Scan(&id, &documentID, &row.ChunkIndex, &row.Content,
			&embedding, &row.EmbeddingModel, &row.CreatedAt, &row.DocumentTitle)
		if err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}

		row.ID = uuidString(id)
		row.DocumentID = uuidString(documentID)
		row.Embedding = &embedding
		result = append(result, row)
	}

	return result, rows.Err()
}

func (r *ChunkPostgres) UpdateEmbedding(ctx context.Context, chunkID string, embedding pgvector.Vector, model string) error {
	id, err := parseUUID(chunkID)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		UPDATE document_chunks
		SET embedding = $2, embedding_model = $3
		WHERE id = $1`,
		id, embedding, model)
	if err != nil {
		return fmt.Errorf("update chunk embedding: %w", err)
	}

	return nil
}

// SearchSimilar ranks chunks in SQL with pgvector's cosine-distance
// operator; similarity = 1 - distance. Rows come back ordered by
// ascending distance, i.e. best match first.
func (r *ChunkPostgres) SearchSimilar(ctx context.Context, query pgvector.Vector, studentID string, threshold float64, limit int) ([]entity.SimilarChunk, error) {
	owner, err := optionalUUID(studentID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT dc.id, dc.document_id, dc.content, dc.chunk_index, d.title,
		       1 - (dc.embedding <=> $1) AS similarity
		FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		WHERE dc.embedding IS NOT NULL
		  AND ($2::uuid IS NULL OR d.student_id = $2)
		  AND 1 - (dc.embedding <=> $1) >= $3
		ORDER BY dc.embedding <=> $1
		LIMIT $4`,
		query, owner, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []entity.SimilarChunk
	for rows.Next() {
		var hit entity.SimilarChunk
		var chunkID, documentID pgtype.UUID

		err := rows.Scan(&chunkID, &documentID, &hit.Content, &hit.ChunkIndex,
			&hit.DocumentTitle, &hit.Similarity)
		if err != nil {
			return nil, fmt.Errorf("scan similarity hit: %w", err)
		}

		hit.ChunkID = uuidString(chunkID)
		hit.DocumentID = uuidString(documentID)
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

func (r *ChunkPostgres) Stats(ctx context.Context) (*entity.EmbeddingStats, error) {
	var stats entity.EmbeddingStats

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(embedding)
		FROM document_chunks`).Scan(&stats.TotalChunks, &stats.ChunksWithEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("embedding stats: %w", err)
	}

	if stats.TotalChunks > 0 {
		stats.Coverage = float64(stats.ChunksWithEmbeddings) / float64(stats.TotalChunks) * 100
	}

	return &stats, nil
}

func scanChunk(row pgx.Row) (*entity.Chunk, error) {
	var chunk entity.Chunk
	var id, documentID pgtype.UUID
	var embedding *pgvector.Vector

	err := row.Scan(&id, &documentID, &chunk.ChunkIndex, &chunk.Content,
		&embedding, &chunk.EmbeddingModel, &chunk.CreatedAt)
	if err != nil {
		return nil, err
	}

	chunk.ID = uuidString(id)
	chunk.DocumentID = uuidString(documentID)
	chunk.Embedding = embedding
	return &chunk, nil
}
