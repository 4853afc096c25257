package document

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/pkg/formatter"
	"github.com/estudia/study-backend/internal/pkg/validator"
	"github.com/estudia/study-backend/internal/rag/extract"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDocumentRepo struct {
	created []entity.Document
	docs    map[string]*entity.Document
}

func (f *fakeDocumentRepo) Create(_ context.Context, doc entity.Document) (*entity.Document, error) {
	f.created = append(f.created, doc)
	stored := doc
	if f.docs == nil {
		f.docs = map[string]*entity.Document{}
	}
	f.docs[doc.ID] = &stored
	return &stored, nil
}

func (f *fakeDocumentRepo) Get(_ context.Context, documentID string) (*entity.Document, error) {
	if doc, ok := f.docs[documentID]; ok {
		return doc, nil
	}
	return nil, entity.ErrDocumentNotFound
}

func (f *fakeDocumentRepo) ListRecent(_ context.Context, studentID string, _ int) ([]entity.Document, error) {
	var docs []entity.Document
	for _, doc := range f.docs {
		if doc.StudentID == studentID {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (f *fakeDocumentRepo) ListAll(_ context.Context) ([]entity.Document, error) {
	var docs []entity.Document
	for _, doc := range f.docs {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (f *fakeDocumentRepo) Delete(_ context.Context, documentID string) error {
	if _, ok := f.docs[documentID]; !ok {
		return entity.ErrDocumentNotFound
	}
	delete(f.docs, documentID)
	return nil
}

func (f *fakeDocumentRepo) Touch(context.Context, string) error { return nil }

type fakeChunkRepo struct {
	batches  [][]entity.Chunk
	updated  int
	batchErr error
}

func (f *fakeChunkRepo) CreateBatch(_ context.Context, chunks []entity.Chunk) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, chunks)
	return nil
}

func (f *fakeChunkRepo) GetByDocument(_ context.Context, documentID string) ([]entity.Chunk, error) {
	var chunks []entity.Chunk
	for _, batch := range f.batches {
		for _, chunk := range batch {
			if chunk.DocumentID == documentID {
				chunks = append(chunks, chunk)
			}
		}
	}
	return chunks, nil
}

func (f *fakeChunkRepo) ListWithEmbeddings(context.Context, string) ([]entity.ChunkWithDocument, error) {
	return nil, nil
}

func (f *fakeChunkRepo) UpdateEmbedding(context.Context, string, pgvector.Vector, string) error {
	f.updated++
	return nil
}

func (f *fakeChunkRepo) SearchSimilar(context.Context, pgvector.Vector, string, float64, int) ([]entity.SimilarChunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) Stats(context.Context) (*entity.EmbeddingStats, error) {
	return &entity.EmbeddingStats{TotalChunks: 4, ChunksWithEmbeddings: 2, Coverage: 0.5}, nil
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(context.Context, string) (entity.EmbeddingResult, error) {
	if s.err != nil {
		return entity.EmbeddingResult{}, s.err
	}
	return entity.EmbeddingResult{Embedding: []float32{1, 0}, Model: "stub"}, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([]entity.EmbeddingResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	results := make([]entity.EmbeddingResult, len(texts))
	for i := range texts {
		results[i] = entity.EmbeddingResult{Embedding: []float32{1, 0}, Model: "stub"}
	}
	return results, nil
}

type stubChatModel struct {
	reply string
	err   error
}

func (s *stubChatModel) Complete(context.Context, string, []entity.ChatTurn) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubSearcher struct {
	hits []entity.SimilarChunk
	err  error
}

func (s *stubSearcher) Search(context.Context, string, string, int, float64) ([]entity.SimilarChunk, error) {
	return s.hits, s.err
}

func ragConfig() config.RAGConfig {
	return config.RAGConfig{
		ChunkSize:           1000,
		TopK:                5,
		SimilarityThreshold: 0.7,
		FuzzyMatchThreshold: 0.35,
		ContextBudget:       3000,
		OverviewLimit:       10,
		SummarySnippetLen:   200,
		ResolverStrategy:    "full-overview",
	}
}

func newTestUsecase(docRepo *fakeDocumentRepo, chunkRepo *fakeChunkRepo, embedder EmbeddingsConnector, chatModel ChatModelConnector, searcher ChunkSearcher) *DocumentUsecase {
	return NewUsecase(
		docRepo,
		chunkRepo,
		validator.NewFileValidator(config.FileUploadConfig{MaxFileSize: 1 << 20, MaxUploadSize: 1 << 22}),
		extract.NewExtractor(),
		embedder,
		chatModel,
		searcher,
		formatter.NewFactory(),
		ragConfig(),
		zap.NewNop(),
	)
}

// uploadFile builds a real multipart.FileHeader around content.
func uploadFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 22)
	require.NoError(t, err)

	return form.File["file"][0]
}

func TestIngestHappyPath(t *testing.T) {
	docRepo := &fakeDocumentRepo{}
	chunkRepo := &fakeChunkRepo{}
	uc := newTestUsecase(docRepo, chunkRepo, &stubEmbedder{}, &stubChatModel{reply: "Resumen generado."}, &stubSearcher{})

	report, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		File:      uploadFile(t, "apuntes.txt", []byte("Apuntes de Física\n\nLa primera ley de Newton.")),
	})

	require.NoError(t, err)
	require.NotNil(t, report.Document)
	assert.Empty(t, report.Degraded)
	assert.Equal(t, "Apuntes de Física", report.Document.Title)
	require.NotNil(t, report.Document.Summary)
	assert.Equal(t, "Resumen generado.", *report.Document.Summary)
	assert.Equal(t, report.ChunkCount, report.Embedded)

	require.Len(t, chunkRepo.batches, 1)
	for _, chunk := range chunkRepo.batches[0] {
		assert.True(t, chunk.HasEmbedding())
	}
}

func TestIngestTitleOverride(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	report, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		Title:     "Mi título",
		File:      uploadFile(t, "apuntes.txt", []byte("contenido")),
	})

	require.NoError(t, err)
	assert.Equal(t, "Mi título", report.Document.Title)
}

func TestIngestEmbeddingFailureDegrades(t *testing.T) {
	docRepo := &fakeDocumentRepo{}
	chunkRepo := &fakeChunkRepo{}
	uc := newTestUsecase(docRepo, chunkRepo, &stubEmbedder{err: errors.New("provider down")}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	report, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		File:      uploadFile(t, "apuntes.txt", []byte("contenido del documento")),
	})

	require.NoError(t, err)
	assert.True(t, report.IsDegraded(entity.StepEmbeddings))
	assert.Zero(t, report.Embedded)
	assert.Positive(t, report.ChunkCount)

	// Chunks are stored without vectors rather than dropped.
	require.Len(t, chunkRepo.batches, 1)
	for _, chunk := range chunkRepo.batches[0] {
		assert.False(t, chunk.HasEmbedding())
	}
}

func TestIngestSummaryFailureDegrades(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{err: errors.New("model down")}, &stubSearcher{})

	report, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		File:      uploadFile(t, "apuntes.txt", []byte("contenido del documento")),
	})

	require.NoError(t, err)
	assert.True(t, report.IsDegraded(entity.StepSummary))
	assert.Nil(t, report.Document.Summary)
	assert.Positive(t, report.Embedded)
}

func TestIngestUnsupportedFormatIsFatal(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	_, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		File:      uploadFile(t, "imagen.png", []byte("data")),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInvalidExtension)
}

func TestIngestMissingStudentID(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	_, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		File: uploadFile(t, "apuntes.txt", []byte("contenido")),
	})

	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestSearchDefaultsFromConfig(t *testing.T) {
	searcher := &stubSearcher{hits: []entity.SimilarChunk{{ChunkID: "c1", Similarity: 0.9}}}
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, searcher)

	resp, err := uc.Search(context.Background(), &entity.SearchRequest{Query: "newton"})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "newton", resp.Query)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	_, err := uc.Search(context.Background(), &entity.SearchRequest{Query: "   "})

	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestSearchRejectsInvalidThreshold(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	bad := 1.5
	_, err := uc.Search(context.Background(), &entity.SearchRequest{Query: "q", Threshold: &bad})

	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestReembedUpdatesEveryChunk(t *testing.T) {
	docRepo := &fakeDocumentRepo{}
	chunkRepo := &fakeChunkRepo{}
	uc := newTestUsecase(docRepo, chunkRepo, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	report, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		File:      uploadFile(t, "apuntes.txt", []byte("uno\n\ndos")),
	})
	require.NoError(t, err)

	updated, err := uc.Reembed(context.Background(), report.Document.ID)

	require.NoError(t, err)
	assert.Equal(t, report.ChunkCount, updated)
	assert.Equal(t, updated, chunkRepo.updated)
}

func TestReembedUnknownDocument(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	_, err := uc.Reembed(context.Background(), "missing")

	assert.ErrorIs(t, err, entity.ErrDocumentNotFound)
}

func TestExportMarkdown(t *testing.T) {
	docRepo := &fakeDocumentRepo{}
	chunkRepo := &fakeChunkRepo{}
	uc := newTestUsecase(docRepo, chunkRepo, &stubEmbedder{}, &stubChatModel{reply: "Resumen breve."}, &stubSearcher{})

	report, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		Title:     "Apuntes",
		File:      uploadFile(t, "apuntes.txt", []byte("Las leyes de Newton.")),
	})
	require.NoError(t, err)

	result, err := uc.Export(context.Background(), report.Document.ID, entity.FormatMarkdown)

	require.NoError(t, err)
	assert.Equal(t, "apuntes.md", result.Filename)
	assert.Equal(t, "text/markdown; charset=utf-8", result.ContentType)
	assert.Contains(t, string(result.Data), "# Apuntes")
	assert.Contains(t, string(result.Data), "Las leyes de Newton.")
	assert.Contains(t, string(result.Data), "Resumen breve.")
}

func TestExportUnknownFormat(t *testing.T) {
	docRepo := &fakeDocumentRepo{}
	uc := newTestUsecase(docRepo, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	report, err := uc.Ingest(context.Background(), &entity.UploadDocumentRequest{
		StudentID: "2b1f8a30-55f2-4f39-9f5a-000000000001",
		File:      uploadFile(t, "apuntes.txt", []byte("contenido")),
	})
	require.NoError(t, err)

	_, err = uc.Export(context.Background(), report.Document.ID, entity.ResultFormat("xlsx"))

	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestDeleteUnknownDocument(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	err := uc.Delete(context.Background(), "missing")

	assert.ErrorIs(t, err, entity.ErrDocumentNotFound)
}

func TestStats(t *testing.T) {
	uc := newTestUsecase(&fakeDocumentRepo{}, &fakeChunkRepo{}, &stubEmbedder{}, &stubChatModel{reply: "ok"}, &stubSearcher{})

	stats, err := uc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalChunks)
	assert.InDelta(t, 0.5, stats.Coverage, 1e-9)
}
