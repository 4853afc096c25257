package entity

import "mime/multipart"

type UploadDocumentRequest struct {
	StudentID string
	Title     string
	File      *multipart.FileHeader
}

type UploadDocumentResponse struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary,omitempty"`
	ChunkCount int      `json:"chunks_count"`
	Degraded   []string `json:"degraded_steps,omitempty"`
}

type DocumentListItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Summary    *string `json:"summary,omitempty"`
	Filename   string  `json:"filename"`
	ChunkCount int     `json:"chunks_count"`
	CreatedAt  string  `json:"created_at"`
}

type DocumentContentResponse struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Summary *string        `json:"summary,omitempty"`
	Content string         `json:"content"`
	Chunks  []ChunkContent `json:"chunks"`
}

type ChunkContent struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

type SearchRequest struct {
	Query     string   `json:"query"`
	StudentID string   `json:"student_id,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SimilarChunk `json:"results"`
	Count   int            `json:"count"`
}

// ExportResult is a rendered study sheet ready to be sent as a download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ResultFormat selects the study-sheet export format.
type ResultFormat string

const (
	FormatMarkdown ResultFormat = "md"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)
