package entity

// ChatTurn is one {role, content} turn of the running conversation sent
// to the language model after the leading system instruction.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// EmbeddingResult pairs a vector with the model that produced it, for
// provenance when the embedding is stored.
type EmbeddingResult struct {
	Embedding []float32
	Model     string
}

// StudyQuestionsBlock groups generated study questions by document.
type StudyQuestionsBlock struct {
	DocumentTitle string   `json:"document_title"`
	Questions     []string `json:"questions"`
}
