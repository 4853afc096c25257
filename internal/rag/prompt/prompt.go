// Package prompt composes the system instruction sent to the language
// model: assistant personality, the student's documents overview, the
// directive instruction and the retrieved context blocks.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/rag/textutil"
)

const assistantPreamble = `Eres un asistente de estudio inteligente y útil. Tu objetivo es ayudar a los estudiantes a comprender mejor sus materiales de estudio, responder preguntas académicas y proporcionar explicaciones claras.

Características de tu personalidad:
- Eres paciente y comprensivo
- Explicas conceptos de manera clara y accesible
- Proporcionas ejemplos cuando es útil
- Fomentas el pensamiento crítico
- Respondes en español de manera natural y amigable

Instrucciones:
- Si el estudiante hace una pregunta sobre un tema específico, proporciona una explicación completa pero concisa
- Si necesitas aclaración, haz preguntas de seguimiento
- Sugiere métodos de estudio cuando sea apropiado
- Si hay documentos disponibles, úsalos como contexto para tus respuestas`

const groundingNote = "IMPORTANTE: Usa SOLO la información del contexto anterior para responder. Si la pregunta no se puede responder con el contexto proporcionado, indica que necesitas más información o que el estudiante suba documentos relevantes."

const noDocumentsNote = "NOTA: No hay documentos disponibles. Sugiere al estudiante que suba documentos relevantes para obtener ayuda más específica."

// FallbackAssistantMessage replaces the assistant reply when the model
// call fails. The turn still completes with this message persisted.
const FallbackAssistantMessage = "Lo siento, estoy experimentando dificultades técnicas. Por favor, intenta de nuevo en unos momentos."

// SummarySystemPrompt instructs the model when summarizing an uploaded
// document at ingestion time.
const SummarySystemPrompt = "Eres un asistente que ayuda a resumir documentos académicos. Crea un resumen conciso y útil del siguiente documento."

// StudyQuestionsSystemPrompt instructs the model when generating study
// questions for a document.
const StudyQuestionsSystemPrompt = "Eres un asistente educativo. Genera 5 preguntas de estudio relevantes basadas en el contenido del documento. Las preguntas deben ayudar al estudiante a comprender mejor el material."

var spanishMonths = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

type Builder struct {
	summarySnippetLen int
}

func NewBuilder(summarySnippetLen int) *Builder {
	return &Builder{summarySnippetLen: summarySnippetLen}
}

// Overview renders the numbered documents listing shown to the model so
// it can tell which materials exist. Empty when the student has none.
func (b *Builder) Overview(docs []entity.Document) string {
	if len(docs) == 0 {
		return ""
	}

	lines := make([]string, 0, len(docs))
	for i, doc := range docs {
		entry := b.overviewEntry(doc)
		lines = append(lines, fmt.Sprintf("%d. %s (chunks: %d, actualizado: %s)\n   Resumen: %s",
			i+1, entry.Title, entry.ChunkCount, entry.UpdatedLabel, entry.Summary))
	}

	return strings.Join(lines, "\n")
}

func (b *Builder) overviewEntry(doc entity.Document) entity.DocumentOverviewEntry {
	title := doc.Title
	if strings.TrimSpace(title) == "" {
		title = "Documento sin título"
	}

	summary := "Sin resumen"
	if doc.Summary != nil && strings.TrimSpace(*doc.Summary) != "" {
		summary = *doc.Summary
		if len(summary) > b.summarySnippetLen {
			summary = textutil.Truncate(summary, b.summarySnippetLen) + "…"
		}
	}

	return entity.DocumentOverviewEntry{
		Title:        title,
		ChunkCount:   doc.ChunkCount,
		Summary:      summary,
		UpdatedLabel: dateLabel(doc.UpdatedAt),
	}
}

func dateLabel(t time.Time) string {
	if t.IsZero() {
		return "Sin fecha"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// DirectiveInstruction tells the model what the detected directive asks
// for and to name which document from the overview it picked.
func (b *Builder) DirectiveInstruction(directive *entity.Directive) string {
	if directive == nil {
		return ""
	}

	switch directive.Action {
	case entity.DirectiveSummarize:
		return "El estudiante pidió un RESUMEN de uno de sus documentos. Elige el documento del listado anterior que mejor corresponda a su petición, menciona explícitamente cuál elegiste y resume su contenido."
	case entity.DirectiveUse:
		return "El estudiante pidió usar uno de sus documentos como base. Elige el documento del listado anterior que mejor corresponda a su petición, menciona explícitamente cuál elegiste y responde apoyándote en su contenido."
	default:
		return ""
	}
}

// MergeContexts combines directive-resolved documents with semantic hits,
// deduplicated by document identity first and title second. The
// directive-resolved copy wins because it carries the full budgeted
// content rather than a single chunk.
func MergeContexts(resolved []entity.DocumentContext, hits []entity.SimilarChunk) []entity.DocumentContext {
	merged := make([]entity.DocumentContext, 0, len(resolved)+len(hits))
	seenIDs := make(map[string]bool)
	seenTitles := make(map[string]bool)

	for _, dc := range resolved {
		merged = append(merged, dc)
		if dc.DocumentID != "" {
			seenIDs[dc.DocumentID] = true
		}
		seenTitles[dc.Title] = true
	}

	for _, hit := range hits {
		if hit.DocumentID != "" && seenIDs[hit.DocumentID] {
			continue
		}
		if seenTitles[hit.DocumentTitle] {
			continue
		}
		merged = append(merged, entity.DocumentContext{
			DocumentID: hit.DocumentID,
			Title:      hit.DocumentTitle,
			Summary:    fmt.Sprintf("Fragmento %d (Similitud: %.1f%%)", hit.ChunkIndex, hit.Similarity*100),
			Content:    hit.Content,
		})
	}

	return merged
}

// System assembles the full system prompt for one answer turn.
func (b *Builder) System(overview string, directive *entity.Directive, contexts []entity.DocumentContext) string {
	var sb strings.Builder
	sb.WriteString(assistantPreamble)

	if overview != "" {
		sb.WriteString("\n\nDOCUMENTOS DEL ESTUDIANTE:\n")
		sb.WriteString(overview)
	}

	if instruction := b.DirectiveInstruction(directive); instruction != "" {
		sb.WriteString("\n\n")
		sb.WriteString(instruction)
	}

	if len(contexts) > 0 {
		sb.WriteString("\n\nCONTEXTO RELEVANTE ENCONTRADO:\n")
		for i, dc := range contexts {
			sb.WriteString(fmt.Sprintf("\n%d. Documento: %s\n", i+1, dc.Title))
			if dc.Summary != "" {
				sb.WriteString(fmt.Sprintf("   Info: %s\n", dc.Summary))
			}
			sb.WriteString(fmt.Sprintf("   Contenido: %s\n", dc.Content))
		}
		sb.WriteString("\n\n")
		sb.WriteString(groundingNote)
	} else {
		sb.WriteString("\n\n")
		sb.WriteString(noDocumentsNote)
	}

	return sb.String()
}
