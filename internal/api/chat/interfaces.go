package chat

import (
	"context"

	"github.com/estudia/study-backend/internal/entity"
)

type ChatUsecase interface {
	RegisterStudent(ctx context.Context, req *entity.RegisterStudentRequest) (*entity.Student, error)
	CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.ChatSession, error)
	GetConversation(ctx context.Context, sessionID string) (*entity.ConversationResponse, error)
	SendMessage(ctx context.Context, req *entity.SendMessageRequest) (*entity.SendMessageResponse, error)
	GenerateStudyQuestions(ctx context.Context, documentID string) (*entity.StudyQuestionsBlock, error)
}
