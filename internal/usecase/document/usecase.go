package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/pkg/formatter"
	"github.com/estudia/study-backend/internal/pkg/validator"
	"github.com/estudia/study-backend/internal/rag/chunker"
	"github.com/estudia/study-backend/internal/rag/extract"
	"github.com/estudia/study-backend/internal/rag/prompt"
	"github.com/estudia/study-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// listLimit bounds the document listing for one student.
const listLimit = 100

// DocumentUsecase implements document ingestion, retrieval, semantic
// search and study-sheet export.
type DocumentUsecase struct {
	documentRepo repository.DocumentRepository
	chunkRepo    repository.ChunkRepository
	validator    *validator.Validator
	extractor    *extract.Extractor
	embedder     EmbeddingsConnector
	chatModel    ChatModelConnector
	searcher     ChunkSearcher
	formatters   *formatter.Factory
	ragCfg       config.RAGConfig
	logger       *zap.Logger
}

// NewUsecase creates a new document use case
func NewUsecase(
	documentRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	validator *validator.Validator,
	extractor *extract.Extractor,
	embedder EmbeddingsConnector,
	chatModel ChatModelConnector,
	searcher ChunkSearcher,
	formatters *formatter.Factory,
	ragCfg config.RAGConfig,
	logger *zap.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		validator:    validator,
		extractor:    extractor,
		embedder:     embedder,
		chatModel:    chatModel,
		searcher:     searcher,
		formatters:   formatters,
		ragCfg:       ragCfg,
		logger:       logger,
	}
}

// Ingest runs the full pipeline for one uploaded file: extract, clean,
// chunk, summarize, embed, persist. The document row is always created;
// a failed enrichment step is recorded in the report instead of failing
// the upload. Only an unsupported format or a storage error is fatal.
func (uc *DocumentUsecase) Ingest(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.IngestReport, error) {
	if err := uc.validator.ValidateUploadDocument(req); err != nil {
		return nil, err
	}

	data, err := readUpload(req.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidFile, err)
	}

	report := &entity.IngestReport{}
	filename := validator.SanitizeFilename(req.File.Filename)

	extracted, err := uc.extractor.Extract(ctx, filename, data)
	if err != nil {
		if errors.Is(err, entity.ErrUnsupportedFormat) {
			return nil, err
		}
		ctxzap.Extract(ctx).Warn("text extraction failed, storing document without content",
			zap.String("filename", filename), zap.Error(err))
		report.Degraded = append(report.Degraded, entity.StepExtraction)
		extracted = extract.ExtractedText{Title: filename}
	}

	title := req.Title
	if title == "" {
		title = extracted.Title
	}

	chunks := chunker.Split(extracted.Content, uc.ragCfg.ChunkSize)

	var summary *string
	if len(chunks) > 0 {
		if s, err := uc.generateSummary(ctx, extracted.Content); err != nil {
			ctxzap.Extract(ctx).Warn("summary generation failed", zap.Error(err))
			report.Degraded = append(report.Degraded, entity.StepSummary)
		} else {
			summary = &s
		}
	}

	doc, err := uc.documentRepo.Create(ctx, entity.Document{
		ID:        uuid.New().String(),
		StudentID: req.StudentID,
		Title:     title,
		Filename:  filename,
		Summary:   summary,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	rows, embedded := uc.embedChunks(ctx, doc.ID, chunks, report)
	if len(rows) > 0 {
		if err := uc.chunkRepo.CreateBatch(ctx, rows); err != nil {
			return nil, fmt.Errorf("store chunks: %w", err)
		}
	}

	doc.ChunkCount = len(rows)
	report.Document = doc
	report.ChunkCount = len(rows)
	report.Embedded = embedded

	return report, nil
}

// embedChunks builds the chunk rows for a document, attaching vectors
// when the embeddings backend cooperates. A batch failure degrades the
// report and leaves every chunk unembedded rather than dropping text.
func (uc *DocumentUsecase) embedChunks(ctx context.Context, documentID string, contents []string, report *entity.IngestReport) ([]entity.Chunk, int) {
	rows := make([]entity.Chunk, 0, len(contents))
	for i, content := range contents {
		rows = append(rows, entity.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			ChunkIndex: i + 1,
			Content:    content,
		})
	}

	if len(rows) == 0 {
		return rows, 0
	}

	results, err := uc.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		ctxzap.Extract(ctx).Warn("batch embedding failed, storing chunks without vectors",
			zap.String("document_id", documentID), zap.Error(err))
		report.Degraded = append(report.Degraded, entity.StepEmbeddings)
		return rows, 0
	}

	for i := range rows {
		vec := pgvector.NewVector(results[i].Embedding)
		rows[i].Embedding = &vec
		rows[i].EmbeddingModel = &results[i].Model
	}

	return rows, len(rows)
}

func (uc *DocumentUsecase) generateSummary(ctx context.Context, content string) (string, error) {
	excerpt := content
	if len(excerpt) > uc.ragCfg.ContextBudget {
		excerpt = excerpt[:uc.ragCfg.ContextBudget]
	}

	summary, err := uc.chatModel.Complete(ctx, prompt.SummarySystemPrompt, []entity.ChatTurn{
		{Role: entity.RoleUser, Content: excerpt},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(summary), nil
}

// List returns the student's documents, most recently updated first.
func (uc *DocumentUsecase) List(ctx context.Context, studentID string) ([]entity.DocumentListItem, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: student_id", entity.ErrMissingField)
	}

	docs, err := uc.documentRepo.ListRecent(ctx, studentID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	items := make([]entity.DocumentListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toListItem(doc))
	}

	return items, nil
}

// GetContent returns a document together with its ordered chunk texts.
func (uc *DocumentUsecase) GetContent(ctx context.Context, documentID string) (*entity.DocumentContentResponse, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	chunks, err := uc.chunkRepo.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	return toContentResponse(doc, chunks), nil
}

// Delete removes a document; its chunks go with it.
func (uc *DocumentUsecase) Delete(ctx context.Context, documentID string) error {
	if err := uc.documentRepo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Search ranks stored chunks against a free-text query. Limit and
// threshold fall back to the configured defaults when absent.
func (uc *DocumentUsecase) Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query", entity.ErrMissingField)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = uc.ragCfg.TopK
	}

	threshold := uc.ragCfg.SimilarityThreshold
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			return nil, fmt.Errorf("%w: threshold must be in [0,1]", entity.ErrInvalidParameter)
		}
		threshold = *req.Threshold
	}

	results, err := uc.searcher.Search(ctx, req.Query, req.StudentID, limit, threshold)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &entity.SearchResponse{
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	}, nil
}

// Reembed regenerates vectors for every chunk of one document and
// returns how many were updated.
func (uc *DocumentUsecase) Reembed(ctx context.Context, documentID string) (int, error) {
	if _, err := uc.documentRepo.Get(ctx, documentID); err != nil {
		return 0, fmt.Errorf("get document: %w", err)
	}

	chunks, err := uc.chunkRepo.GetByDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("get chunks: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}

	results, err := uc.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	updated := 0
	for i, chunk := range chunks {
		if err := uc.chunkRepo.UpdateEmbedding(ctx, chunk.ID, pgvector.NewVector(results[i].Embedding), results[i].Model); err != nil {
			return updated, fmt.Errorf("update embedding: %w", err)
		}
		updated++
	}

	if err := uc.documentRepo.Touch(ctx, documentID); err != nil {
		ctxzap.Extract(ctx).Warn("touch document after reembed",
			zap.String("document_id", documentID), zap.Error(err))
	}

	return updated, nil
}

// RegenerateAll re-embeds every stored document. Per-document failures
// are logged and skipped so one bad document does not stall the rest.
func (uc *DocumentUsecase) RegenerateAll(ctx context.Context) (int, error) {
	docs, err := uc.documentRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	total := 0
	for _, doc := range docs {
		updated, err := uc.Reembed(ctx, doc.ID)
		if err != nil {
			ctxzap.Extract(ctx).Warn("reembed document failed",
				zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		total += updated
	}

	return total, nil
}

// Stats reports embedding coverage over all stored chunks.
func (uc *DocumentUsecase) Stats(ctx context.Context) (*entity.EmbeddingStats, error) {
	stats, err := uc.chunkRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding stats: %w", err)
	}
	return stats, nil
}

// Export renders a document as a downloadable study sheet in the
// requested format.
func (uc *DocumentUsecase) Export(ctx context.Context, documentID string, format entity.ResultFormat) (*entity.ExportResult, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	chunks, err := uc.chunkRepo.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	data, err := f.Format(doc.Title, studySheetBody(doc, chunks))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	return &entity.ExportResult{
		Filename:    exportFilename(doc.Title, f.FileExtension()),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
