package document

import "github.com/estudia/study-backend/internal/entity"

func toUploadResponse(report *entity.IngestReport) *entity.UploadDocumentResponse {
	resp := &entity.UploadDocumentResponse{
		ID:         report.Document.ID,
		Title:      report.Document.Title,
		ChunkCount: report.ChunkCount,
	}

	if report.Document.Summary != nil {
		resp.Summary = *report.Document.Summary
	}

	for _, step := range report.Degraded {
		resp.Degraded = append(resp.Degraded, string(step))
	}

	return resp
}
