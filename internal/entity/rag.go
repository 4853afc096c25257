package entity

// SimilarChunk is one semantic-search hit, produced per query and never
// persisted. Results are ordered by descending similarity.
type SimilarChunk struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	Content       string  `json:"content"`
	Similarity    float64 `json:"similarity"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
}

// DocumentContext is one budgeted excerpt handed to the language model.
type DocumentContext struct {
	DocumentID string
	Title      string
	Summary    string
	Content    string
}

// DirectiveAction classifies what the student asked the assistant to do
// with a specific document.
type DirectiveAction string

const (
	DirectiveSummarize DirectiveAction = "summarize"
	DirectiveUse       DirectiveAction = "use"
)

// Directive is a detected intent to summarize or explicitly use an
// uploaded document, derived from the latest user turn. Target carries
// the free-text document reference when the query-match resolver is in
// use; the full-overview resolver ignores it.
type Directive struct {
	Action DirectiveAction
	Target string
}

// ChunkWithDocument joins a chunk row with its parent document's title,
// as loaded for in-process similarity ranking.
type ChunkWithDocument struct {
	Chunk
	DocumentTitle string
}

// DocumentOverviewEntry is a per-turn formatting view over a student's
// document, used to enumerate documents inside the system prompt.
type DocumentOverviewEntry struct {
	Title        string
	ChunkCount   int
	Summary      string
	UpdatedLabel string
}

// IngestStep names one enrichment step of the ingestion pipeline.
type IngestStep string

const (
	StepExtraction IngestStep = "extraction"
	StepEmbeddings IngestStep = "embeddings"
	StepSummary    IngestStep = "summary"
)

// IngestReport describes the outcome of one document ingestion. The
// document itself is always created; Degraded lists the enrichment steps
// that failed and were skipped.
type IngestReport struct {
	Document   *Document
	ChunkCount int
	Embedded   int
	Degraded   []IngestStep
}

// IsDegraded reports whether the given step failed during ingestion.
func (r *IngestReport) IsDegraded(step IngestStep) bool {
	for _, s := range r.Degraded {
		if s == step {
			return true
		}
	}
	return false
}

// EmbeddingStats summarizes embedding coverage over a student's chunks.
type EmbeddingStats struct {
	TotalChunks          int     `json:"total_chunks"`
	ChunksWithEmbeddings int     `json:"chunks_with_embeddings"`
	Coverage             float64 `json:"embedding_coverage"`
}
