package document

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsecase struct {
	lastUpload *entity.UploadDocumentRequest
	ingestErr  error
}

func (s *stubUsecase) Ingest(_ context.Context, req *entity.UploadDocumentRequest) (*entity.IngestReport, error) {
	s.lastUpload = req
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	return &entity.IngestReport{
		Document:   &entity.Document{ID: "d1", Title: "Apuntes"},
		ChunkCount: 2,
		Embedded:   2,
	}, nil
}

func (s *stubUsecase) List(context.Context, string) ([]entity.DocumentListItem, error) {
	return nil, nil
}

func (s *stubUsecase) GetContent(context.Context, string) (*entity.DocumentContentResponse, error) {
	return nil, nil
}

func (s *stubUsecase) Delete(context.Context, string) error { return nil }

func (s *stubUsecase) Search(context.Context, *entity.SearchRequest) (*entity.SearchResponse, error) {
	return nil, nil
}

func (s *stubUsecase) Reembed(context.Context, string) (int, error) { return 0, nil }

func (s *stubUsecase) RegenerateAll(context.Context) (int, error) { return 0, nil }

func (s *stubUsecase) Stats(context.Context) (*entity.EmbeddingStats, error) { return nil, nil }

func (s *stubUsecase) Export(context.Context, string, entity.ResultFormat) (*entity.ExportResult, error) {
	return nil, nil
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("student_id", "s1"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func testUploadConfig() config.FileUploadConfig {
	return config.FileUploadConfig{
		MaxFileSize:   10 << 20,
		MaxUploadSize: 32 << 20,
	}
}

func TestUploadAcceptsMultipartForm(t *testing.T) {
	usecase := &stubUsecase{}
	h := NewHandler(usecase, testUploadConfig())

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "apuntes.txt", []byte("Fotosíntesis.\n\nLuz y clorofila.")))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, usecase.lastUpload)
	assert.Equal(t, "s1", usecase.lastUpload.StudentID)
	assert.Equal(t, "apuntes.txt", usecase.lastUpload.File.Filename)

	var resp entity.UploadDocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "d1", resp.ID)
	assert.Equal(t, 2, resp.ChunkCount)
}

func TestUploadMissingFile(t *testing.T) {
	h := NewHandler(&stubUsecase{}, testUploadConfig())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("student_id", "s1"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadNotMultipart(t *testing.T) {
	h := NewHandler(&stubUsecase{}, testUploadConfig())

	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewBufferString(`{"x":1}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
