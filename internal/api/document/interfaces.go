package document

import (
	"context"

	"github.com/estudia/study-backend/internal/entity"
)

type DocumentUsecase interface {
	Ingest(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.IngestReport, error)
	List(ctx context.Context, studentID string) ([]entity.DocumentListItem, error)
	GetContent(ctx context.Context, documentID string) (*entity.DocumentContentResponse, error)
	Delete(ctx context.Context, documentID string) error
	Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResponse, error)
	Reembed(ctx context.Context, documentID string) (int, error)
	RegenerateAll(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*entity.EmbeddingStats, error)
	Export(ctx context.Context, documentID string, format entity.ResultFormat) (*entity.ExportResult, error)
}
