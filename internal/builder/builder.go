package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/estudia/study-backend/internal/api"
	chatapi "github.com/estudia/study-backend/internal/api/chat"
	documentapi "github.com/estudia/study-backend/internal/api/document"
	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/integration/openai"
	"github.com/estudia/study-backend/internal/pkg/formatter"
	"github.com/estudia/study-backend/internal/pkg/logger"
	"github.com/estudia/study-backend/internal/pkg/validator"
	"github.com/estudia/study-backend/internal/rag/directive"
	"github.com/estudia/study-backend/internal/rag/extract"
	"github.com/estudia/study-backend/internal/rag/prompt"
	"github.com/estudia/study-backend/internal/rag/search"
	"github.com/estudia/study-backend/internal/repository"
	"github.com/estudia/study-backend/internal/usecase/chat"
	"github.com/estudia/study-backend/internal/usecase/document"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	log.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully")

	// Initialize repositories
	documentRepo := repository.NewDocumentPostgres(db)
	chunkRepo := repository.NewChunkPostgres(db)
	studentRepo := repository.NewStudentPostgres(db)
	sessionRepo := repository.NewSessionPostgres(db)
	messageRepo := repository.NewMessagePostgres(db)
	log.Info("Repositories initialized")

	// Initialize external model connectors (with mock support)
	var embedder document.EmbeddingsConnector
	var chatModel document.ChatModelConnector

	if cfg.EnableMocks {
		log.Info("Using mock connectors for model providers")
		embedder = openai.NewMockEmbeddingsConnector(log)
		chatModel = openai.NewMockChatConnector(log)
	} else {
		log.Info("Using real connectors for model providers")
		embedder = openai.NewEmbeddingsConnector(cfg.EmbeddingsCfg, log)
		chatModel = openai.NewChatConnector(cfg.ChatModelCfg, log)
	}

	// Initialize retrieval pipeline
	searcher := search.NewSearcher(embedder, chunkRepo)
	detector := directive.NewDetector()
	store := &documentStore{documents: documentRepo, chunks: chunkRepo}
	resolver := buildResolver(cfg.RAGCfg, store)
	promptBuilder := prompt.NewBuilder(cfg.RAGCfg.SummarySnippetLen)
	log.Info("Retrieval pipeline initialized",
		zap.String("resolver_strategy", cfg.RAGCfg.ResolverStrategy),
	)

	// Initialize validators and formatters
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	formatters := formatter.NewFactory()

	// Initialize use cases
	documentUC := document.NewUsecase(
		documentRepo,
		chunkRepo,
		fileValidator,
		extract.NewExtractor(),
		embedder,
		chatModel,
		searcher,
		formatters,
		cfg.RAGCfg,
		log,
	)

	chatUC := chat.NewUsecase(
		sessionRepo,
		messageRepo,
		studentRepo,
		documentRepo,
		chunkRepo,
		searcher,
		detector,
		resolver,
		promptBuilder,
		chatModel,
		cfg.RAGCfg,
		log,
	)
	log.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(documentUC, cfg.FileUploadCfg)
	chatHandler := chatapi.NewHandler(chatUC)
	log.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, chatHandler, log)
	log.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: log,
	}, nil
}

func buildResolver(cfg config.RAGConfig, store directive.DocumentStore) directive.Resolver {
	if cfg.ResolverStrategy == "query-match" {
		return directive.NewQueryMatchResolver(store, cfg.OverviewLimit, cfg.ContextBudget, cfg.FuzzyMatchThreshold)
	}
	return directive.NewFullOverviewResolver(store, cfg.OverviewLimit, cfg.ContextBudget)
}

// documentStore bridges the document and chunk repositories into the
// single surface directive resolvers consume.
type documentStore struct {
	documents repository.DocumentRepository
	chunks    repository.ChunkRepository
}

func (s *documentStore) ListRecent(ctx context.Context, studentID string, limit int) ([]entity.Document, error) {
	return s.documents.ListRecent(ctx, studentID, limit)
}

func (s *documentStore) GetChunksOrdered(ctx context.Context, documentID string) ([]entity.Chunk, error) {
	return s.chunks.GetByDocument(ctx, documentID)
}
