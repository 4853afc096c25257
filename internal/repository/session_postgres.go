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

// SessionRepository defines the interface for chat session persistence
type SessionRepository interface {
	Create(ctx context.Context, session entity.ChatSession) (*entity.ChatSession, error)
	Get(ctx context.Context, sessionID string) (*entity.ChatSession, error)
}

var _ SessionRepository = &SessionPostgres{}

type SessionPostgres struct {
	db *pgxpool.Pool
}

func NewSessionPostgres(db *pgxpool.Pool) *SessionPostgres {
	return &SessionPostgres{db: db}
}

func (r *SessionPostgres) Create(ctx context.Context, session entity.ChatSession) (*entity.ChatSession, error) {
	id, err := parseUUID(session.ID)
	if err != nil {
		return nil, err
	}
	studentID, err := parseUUID(session.StudentID)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_sessions (id, student_id, title)
		VALUES ($1, $2, $3)
		RETURNING id, student_id, title, created_at, updated_at`,
		id, studentID, session.Title)

	created, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return created, nil
}

func (r *SessionPostgres) Get(ctx context.Context, sessionID string) (*entity.ChatSession, error) {
	id, err := parseUUID(sessionID)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		SELECT id, student_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1`, id)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

func scanSession(row pgx.Row) (*entity.ChatSession, error) {
	var session entity.ChatSession
	var id, studentID pgtype.UUID

	err := row.Scan(&id, &studentID, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}

	session.ID = uuidString(id)
	session.StudentID = uuidString(studentID)
	return &session, nil
}
