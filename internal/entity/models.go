package entity

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Student owns documents and chat sessions. Authentication is handled
// upstream; here the student is just an owner key.
type Student struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is one uploaded study material after text extraction.
type Document struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	Summary    *string   `json:"summary,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Chunk is a bounded slice of a document's extracted text, the unit of
// embedding and retrieval. ChunkIndex is 1-based and contiguous within
// its document; chunks are never reordered after ingestion.
type Chunk struct {
	ID             string           `json:"id"`
	DocumentID     string           `json:"document_id"`
	ChunkIndex     int              `json:"chunk_index"`
	Content        string           `json:"content"`
	Embedding      *pgvector.Vector `json:"-"`
	EmbeddingModel *string          `json:"embedding_model,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// HasEmbedding reports whether the chunk carries a stored vector.
func (c *Chunk) HasEmbedding() bool {
	return c.Embedding != nil && len(c.Embedding.Slice()) > 0
}

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatSession struct {
	ID        string    `json:"session_id"`
	StudentID string    `json:"student_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	MessageIndex int       `json:"message_index"`
	Role         ChatRole  `json:"role"`
	Content      string    `json:"content"`
	AgentName    string    `json:"agent_name"`
	CreatedAt    time.Time `json:"created_at"`
}
