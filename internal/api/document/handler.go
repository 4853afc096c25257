package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/estudia/study-backend/internal/config"
	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/pkg/logger"
	"github.com/estudia/study-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase DocumentUsecase
	cfg     config.FileUploadConfig
}

func NewHandler(usecase DocumentUsecase, cfg config.FileUploadConfig) *Handler {
	return &Handler{
		usecase: usecase,
		cfg:     cfg,
	}
}

// Upload handles POST /documents
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocument")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "file is required", err)
		return
	}
	file.Close()

	req := entity.UploadDocumentRequest{
		StudentID: r.FormValue("student_id"),
		Title:     r.FormValue("title"),
		File:      r.MultipartForm.File["file"][0],
	}

	ctxzap.Info(ctx, "ingesting document",
		zap.String("student_id", req.StudentID),
		zap.String("filename", req.File.Filename),
		zap.Int64("size", req.File.Size),
	)

	report, err := h.usecase.Ingest(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document ingested",
		zap.String("document_id", report.Document.ID),
		zap.Int("chunks", report.ChunkCount),
		zap.Int("embedded", report.Embedded),
		zap.Bool("degraded", len(report.Degraded) > 0),
	)

	response.Created(w, toUploadResponse(report))
}

// List handles GET /documents
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDocuments")

	items, err := h.usecase.List(ctx, r.URL.Query().Get("student_id"))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]any{
		"documents": items,
		"count":     len(items),
	})
}

// Get handles GET /documents/{document_id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "GetDocument"),
	)

	content, err := h.usecase.GetContent(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, content)
}

// Delete handles DELETE /documents/{document_id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "DeleteDocument"),
	)

	if err := h.usecase.Delete(ctx, documentID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document deleted")
	response.Success(w, map[string]string{"status": "deleted"})
}

// Export handles GET /documents/{document_id}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "ExportDocument"),
	)

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}

	result, err := h.usecase.Export(ctx, documentID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// Search handles POST /search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SearchChunks")

	var req entity.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.Search(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "search completed",
		zap.String("query", req.Query),
		zap.Int("results", resp.Count),
	)

	response.Success(w, resp)
}

// Reembed handles POST /documents/{document_id}/reembed
func (h *Handler) Reembed(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "ReembedDocument"),
	)

	updated, err := h.usecase.Reembed(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document reembedded", zap.Int("updated", updated))
	response.Success(w, map[string]int{"updated": updated})
}

// RegenerateAll handles POST /documents/reembed
func (h *Handler) RegenerateAll(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "RegenerateEmbeddings")

	updated, err := h.usecase.RegenerateAll(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "embeddings regenerated", zap.Int("updated", updated))
	response.Success(w, map[string]int{"updated": updated})
}

// Stats handles GET /documents/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "EmbeddingStats")

	stats, err := h.usecase.Stats(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, stats)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrDocumentNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "document not found", err)
	case errors.Is(err, entity.ErrUnsupportedFormat), errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrInvalidFile), errors.Is(err, entity.ErrFileTooLarge):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
