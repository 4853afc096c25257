package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/rag/directive"
	"github.com/estudia/study-backend/internal/rag/prompt"
	"github.com/estudia/study-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	assistantAgentName  = "studio_assistant"
	defaultSessionTitle = "Nueva conversación"
)

// ChatUsecase implements the answer turn: retrieval, directive handling,
// prompt assembly and completion, with graceful degradation when a
// retrieval stage fails.
type ChatUsecase struct {
	sessionRepo   repository.SessionRepository
	messageRepo   repository.MessageRepository
	studentRepo   repository.StudentRepository
	documentRepo  repository.DocumentRepository
	chunkRepo     repository.ChunkRepository
	searcher      ChunkSearcher
	detector      *directive.Detector
	resolver      directive.Resolver
	promptBuilder *prompt.Builder
	chatModel     ChatModelConnector
	ragCfg        config.RAGConfig
	logger        *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	sessionRepo repository.SessionRepository,
	messageRepo repository.MessageRepository,
	studentRepo repository.StudentRepository,
	documentRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	searcher ChunkSearcher,
	detector *directive.Detector,
	resolver directive.Resolver,
	promptBuilder *prompt.Builder,
	chatModel ChatModelConnector,
	ragCfg config.RAGConfig,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		sessionRepo:   sessionRepo,
		messageRepo:   messageRepo,
		studentRepo:   studentRepo,
		documentRepo:  documentRepo,
		chunkRepo:     chunkRepo,
		searcher:      searcher,
		detector:      detector,
		resolver:      resolver,
		promptBuilder: promptBuilder,
		chatModel:     chatModel,
		ragCfg:        ragCfg,
		logger:        logger,
	}
}

// RegisterStudent creates a student record so sessions can be opened for it.
func (uc *ChatUsecase) RegisterStudent(ctx context.Context, req *entity.RegisterStudentRequest) (*entity.Student, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full_name", entity.ErrMissingField)
	}

	student, err := uc.studentRepo.Create(ctx, entity.Student{
		ID:       uuid.New().String(),
		FullName: fullName,
		Email:    strings.TrimSpace(req.Email),
	})
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}

	return student, nil
}

// CreateSession opens a new conversation for a student.
func (uc *ChatUsecase) CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.ChatSession, error) {
	if req.StudentID == "" {
		return nil, fmt.Errorf("%w: student_id", entity.ErrMissingField)
	}

	if _, err := uc.studentRepo.Get(ctx, req.StudentID); err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultSessionTitle
	}

	session, err := uc.sessionRepo.Create(ctx, entity.ChatSession{
		ID:        uuid.New().String(),
		StudentID: req.StudentID,
		Title:     title,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

// GetConversation returns a session with its messages in send order.
func (uc *ChatUsecase) GetConversation(ctx context.Context, sessionID string) (*entity.ConversationResponse, error) {
	session, err := uc.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	messages, err := uc.messageRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return toConversationResponse(session, messages), nil
}

// SendMessage stores the user's turn, produces the assistant's answer
// and stores it. The user message is persisted even when the model call
// fails; the stored assistant turn is then the fallback text.
func (uc *ChatUsecase) SendMessage(ctx context.Context, req *entity.SendMessageRequest) (*entity.SendMessageResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message", entity.ErrMissingField)
	}

	session, err := uc.sessionRepo.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	history, err := uc.messageRepo.ListBySession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	userMessage, err := uc.messageRepo.Create(ctx, entity.ChatMessage{
		ID:           uuid.New().String(),
		SessionID:    session.ID,
		MessageIndex: len(history) + 1,
		Role:         entity.RoleUser,
		Content:      message,
	})
	if err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	answer, fallback := uc.answer(ctx, session.StudentID, message, history)

	assistantMessage, err := uc.messageRepo.Create(ctx, entity.ChatMessage{
		ID:           uuid.New().String(),
		SessionID:    session.ID,
		MessageIndex: len(history) + 2,
		Role:         entity.RoleAssistant,
		Content:      answer,
		AgentName:    assistantAgentName,
	})
	if err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}

	return &entity.SendMessageResponse{
		UserMessage:      toMessageView(userMessage),
		AssistantMessage: toMessageView(assistantMessage),
		Fallback:         fallback,
	}, nil
}

// answer runs one retrieval-augmented turn. Every retrieval stage is
// allowed to fail: a failed stage is logged and skipped, and only a
// failed completion yields the fallback text.
func (uc *ChatUsecase) answer(ctx context.Context, studentID, message string, history []entity.ChatMessage) (string, bool) {
	log := ctxzap.Extract(ctx)

	hits, err := uc.searcher.Search(ctx, message, studentID, uc.ragCfg.TopK, uc.ragCfg.SimilarityThreshold)
	if err != nil {
		log.Warn("semantic search failed, answering without retrieved chunks", zap.Error(err))
		hits = nil
	}

	dir := uc.detector.Detect(message)

	var resolved []entity.DocumentContext
	if dir != nil {
		resolved, err = uc.resolver.Resolve(ctx, studentID, *dir)
		if err != nil {
			log.Warn("directive resolution failed", zap.String("action", string(dir.Action)), zap.Error(err))
			resolved = nil
		}
	}

	contexts := prompt.MergeContexts(resolved, hits)

	docs, err := uc.documentRepo.ListRecent(ctx, studentID, uc.ragCfg.OverviewLimit)
	if err != nil {
		log.Warn("document overview failed", zap.Error(err))
		docs = nil
	}

	system := uc.promptBuilder.System(uc.promptBuilder.Overview(docs), dir, contexts)

	turns := make([]entity.ChatTurn, 0, len(history)+1)
	for _, msg := range history {
		turns = append(turns, entity.ChatTurn{Role: msg.Role, Content: msg.Content})
	}
	turns = append(turns, entity.ChatTurn{Role: entity.RoleUser, Content: message})

	reply, err := uc.chatModel.Complete(ctx, system, turns)
	if err != nil {
		log.Error("completion failed, returning fallback message", zap.Error(err))
		return prompt.FallbackAssistantMessage, true
	}

	return strings.TrimSpace(reply), false
}

// GenerateStudyQuestions asks the model for study questions over one
// document's budgeted content. A model failure or an unparseable reply
// degrades to a single generic question instead of an error.
func (uc *ChatUsecase) GenerateStudyQuestions(ctx context.Context, documentID string) (*entity.StudyQuestionsBlock, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	chunks, err := uc.chunkRepo.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	block := &entity.StudyQuestionsBlock{DocumentTitle: doc.Title}

	content := directive.BudgetedContent(chunks, uc.ragCfg.ContextBudget)
	if content == "" {
		block.Questions = []string{fallbackStudyQuestion}
		return block, nil
	}

	reply, err := uc.chatModel.Complete(ctx, prompt.StudyQuestionsSystemPrompt, []entity.ChatTurn{
		{Role: entity.RoleUser, Content: content},
	})
	if err != nil {
		ctxzap.Extract(ctx).Warn("study question generation failed",
			zap.String("document_id", documentID), zap.Error(err))
		block.Questions = []string{fallbackStudyQuestion}
		return block, nil
	}

	block.Questions = parseQuestions(reply)
	if len(block.Questions) == 0 {
		block.Questions = []string{fallbackStudyQuestion}
	}

	return block, nil
}
