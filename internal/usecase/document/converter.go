package document

import (
	"strings"
	"time"

	"github.com/estudia/study-backend/internal/entity"
)

func toListItem(doc entity.Document) entity.DocumentListItem {
	return entity.DocumentListItem{
		ID:         doc.ID,
		Title:      doc.Title,
		Summary:    doc.Summary,
		Filename:   doc.Filename,
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
	}
}

func toContentResponse(doc *entity.Document, chunks []entity.Chunk) *entity.DocumentContentResponse {
	resp := &entity.DocumentContentResponse{
		ID:      doc.ID,
		Title:   doc.Title,
		Summary: doc.Summary,
		Chunks:  make([]entity.ChunkContent, 0, len(chunks)),
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		resp.Chunks = append(resp.Chunks, entity.ChunkContent{
			Index:   chunk.ChunkIndex,
			Content: chunk.Content,
		})
		parts = append(parts, chunk.Content)
	}
	resp.Content = strings.Join(parts, "\n\n")

	return resp
}

// studySheetBody assembles the plain-text body of an exported study
// sheet: the stored summary first, then the full reconstructed content.
func studySheetBody(doc *entity.Document, chunks []entity.Chunk) string {
	var sb strings.Builder

	if doc.Summary != nil && *doc.Summary != "" {
		sb.WriteString("Resumen\n\n")
		sb.WriteString(*doc.Summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Contenido\n\n")
	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(chunk.Content)
	}

	return sb.String()
}

// exportFilename slugs the title into a safe download name.
func exportFilename(title, ext string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "documento"
	}

	return slug + ext
}
