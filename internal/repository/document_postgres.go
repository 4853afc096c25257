package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	Create(ctx context.Context, doc entity.Document) (*entity.Document, error)
	Get(ctx context.Context, documentID string) (*entity.Document, error)
	ListRecent(ctx context.Context, studentID string, limit int) ([]entity.Document, error)
	ListAll(ctx context.Context) ([]entity.Document, error)
	Delete(ctx context.Context, documentID string) error
	Touch(ctx context.Context, documentID string) error
}

var _ DocumentRepository = &DocumentPostgres{}

// DocumentPostgres implements DocumentRepository using PostgreSQL
type DocumentPostgres struct {
	db *pgxpool.Pool
}

func NewDocumentPostgres(db *pgxpool.Pool) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

const documentColumns = `
	d.id, d.student_id, d.title, d.filename, d.summary, d.created_at, d.updated_at,
	(SELECT COUNT(*) FROM document_chunks dc WHERE dc.document_id = d.id) AS chunk_count`

func (r *DocumentPostgres) Create(ctx context.Context, doc entity.Document) (*entity.Document, error) {
	id, err := parseUUID(doc.ID)
	if err != nil {
		return nil, err
	}
	studentID, err := parseUUID(doc.StudentID)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO documents (id, student_id, title, filename, summary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, student_id, title, filename, summary, created_at, updated_at`,
		id, studentID, doc.Title, doc.Filename, doc.Summary,
	)

	created, err := scanDocumentBasic(row)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	return created, nil
}

func (r *DocumentPostgres) Get(ctx context.Context, documentID string) (*entity.Document, error) {
	id, err := parseUUID(documentID)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		WHERE d.id = $1`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

func (r *DocumentPostgres) ListRecent(ctx context.Context, studentID string, limit int) ([]entity.Document, error) {
	id, err := parseUUID(studentID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		WHERE d.student_id = $1
		ORDER BY d.updated_at DESC
		LIMIT $2`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (r *DocumentPostgres) ListAll(ctx context.Context) ([]entity.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		ORDER BY d.created_at`)
	if err != nil {
		return nil, fmt.Errorf("list all documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func (r *DocumentPostgres) Delete(ctx context.Context, documentID string) error {
	id, err := parseUUID(documentID)
	if err != nil {
		return err
	}

	// Chunks go with the document via ON DELETE CASCADE.
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}

	return nil
}

func (r *DocumentPostgres) Touch(ctx context.Context, documentID string) error {
	id, err := parseUUID(documentID)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, `UPDATE documents SET updated_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch document: %w", err)
	}

	return nil
}

func collectDocuments(rows pgx.Rows) ([]entity.Document, error) {
	var docs []entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var doc entity.Document
	var id, studentID pgtype.UUID

	err := row.Scan(&id, &studentID, &doc.Title, &doc.Filename, &doc.Summary,
		&doc.CreatedAt, &doc.UpdatedAt, &doc.ChunkCount)
	if err != nil {
		return nil, err
	}

	doc.ID = uuidString(id)
	doc.StudentID = uuidString(studentID)
	return &doc, nil
}

func scanDocumentBasic(row pgx.Row) (*entity.Document, error) {
	var doc entity.Document
	var id, studentID pgtype.UUID

	err := row.Scan(&id, &studentID, &doc.Title, &doc.Filename, &doc.Summary,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	doc.ID = uuidString(id)
	doc.StudentID = uuidString(studentID)
	return &doc, nil
}
