package repository

import (
	"context"
	"fmt"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository defines the interface for chat message persistence
type MessageRepository interface {
	Create(ctx context.Context, message entity.ChatMessage) (*entity.ChatMessage, error)
	ListBySession(ctx context.Context, sessionID string) ([]entity.ChatMessage, error)
}

var _ MessageRepository = &MessagePostgres{}

type MessagePostgres struct {
	db *pgxpool.Pool
}

func NewMessagePostgres(db *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{db: db}
}

func (r *MessagePostgres) Create(ctx context.Context, message entity.ChatMessage) (*entity.ChatMessage, error) {
	id, err := parseUUID(message.ID)
	if err != nil {
		return nil, err
	}
	sessionID, err := parseUUID(message.SessionID)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_id, message_index, role, content, agent_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, session_id, message_index, role, content, agent_name, created_at`,
		id, sessionID, message.MessageIndex, message.Role, message.Content, message.AgentName)

	created, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	return created, nil
}

func (r *MessagePostgres) ListBySession(ctx context.Context, sessionID string) ([]entity.ChatMessage, error) {
	id, err := parseUUID(sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, message_index, role, content, agent_name, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY message_index`, id)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []entity.ChatMessage
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *message)
	}

	return messages, rows.Err()
}

func scanMessage(row pgx.Row) (*entity.ChatMessage, error) {
	var message entity.ChatMessage
	var id, sessionID pgtype.UUID

	err := row.Scan(&id, &sessionID, &message.MessageIndex, &message.Role,
		&message.Content, &message.AgentName, &message.CreatedAt)
	if err != nil {
		return nil, err
	}

	message.ID = uuidString(id)
	message.SessionID = uuidString(sessionID)
	return &message, nil
}
