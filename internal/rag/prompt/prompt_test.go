package prompt

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestOverviewEmpty(t *testing.T) {
	b := NewBuilder(200)

	assert.Empty(t, b.Overview(nil))
}

func TestOverviewFormat(t *testing.T) {
	b := NewBuilder(200)
	docs := []entity.Document{
		{
			Title:      "Apuntes de Física",
			ChunkCount: 3,
			Summary:    strptr("Leyes de Newton y cinemática."),
			UpdatedAt:  time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
		},
	}

	overview := b.Overview(docs)

	assert.Equal(t, "1. Apuntes de Física (chunks: 3, actualizado: 15 mar 2026)\n   Resumen: Leyes de Newton y cinemática.", overview)
}

func TestOverviewDefaultsForMissingFields(t *testing.T) {
	b := NewBuilder(200)
	docs := []entity.Document{{Title: "  ", ChunkCount: 0}}

	overview := b.Overview(docs)

	assert.Contains(t, overview, "Documento sin título")
	assert.Contains(t, overview, "Sin resumen")
	assert.Contains(t, overview, "Sin fecha")
}

func TestOverviewTruncatesLongSummaries(t *testing.T) {
	b := NewBuilder(10)
	docs := []entity.Document{{
		Title:   "Doc",
		Summary: strptr("este resumen es mucho más largo que el límite"),
	}}

	overview := b.Overview(docs)

	assert.Contains(t, overview, "este resum…")
}

func TestOverviewSnippetKeepsRunesWhole(t *testing.T) {
	// The snippet limit lands on the second byte of "í"; the cut must
	// back off instead of emitting a broken rune.
	b := NewBuilder(5)
	docs := []entity.Document{{
		Title:   "Doc",
		Summary: strptr("La física cuántica estudia lo muy pequeño"),
	}}

	overview := b.Overview(docs)

	assert.True(t, utf8.ValidString(overview))
	assert.Contains(t, overview, "La f…")
}

func TestDirectiveInstruction(t *testing.T) {
	b := NewBuilder(200)

	assert.Empty(t, b.DirectiveInstruction(nil))
	assert.Contains(t, b.DirectiveInstruction(&entity.Directive{Action: entity.DirectiveSummarize}), "RESUMEN")
	assert.Contains(t, b.DirectiveInstruction(&entity.Directive{Action: entity.DirectiveUse}), "usar")
}

func TestMergeContextsResolvedWins(t *testing.T) {
	resolved := []entity.DocumentContext{
		{DocumentID: "d1", Title: "Física", Content: "contenido completo"},
	}
	hits := []entity.SimilarChunk{
		{DocumentID: "d1", DocumentTitle: "Física", Content: "fragmento", Similarity: 0.8},
		{DocumentID: "d2", DocumentTitle: "Historia", Content: "otro", Similarity: 0.75, ChunkIndex: 2},
	}

	merged := MergeContexts(resolved, hits)

	require.Len(t, merged, 2)
	assert.Equal(t, "contenido completo", merged[0].Content)
	assert.Equal(t, "Historia", merged[1].Title)
	assert.Equal(t, "Fragmento 2 (Similitud: 75.0%)", merged[1].Summary)
}

func TestMergeContextsDedupesByTitleWhenIDMissing(t *testing.T) {
	resolved := []entity.DocumentContext{{Title: "Física", Content: "a"}}
	hits := []entity.SimilarChunk{{DocumentTitle: "Física", Content: "b", Similarity: 0.9}}

	merged := MergeContexts(resolved, hits)

	require.Len(t, merged, 1)
	assert.Equal(t, "a", merged[0].Content)
}

func TestMergeContextsOnlyHits(t *testing.T) {
	hits := []entity.SimilarChunk{
		{DocumentID: "d1", DocumentTitle: "Física", Content: "x", Similarity: 0.9, ChunkIndex: 1},
	}

	merged := MergeContexts(nil, hits)

	require.Len(t, merged, 1)
	assert.Equal(t, "Física", merged[0].Title)
}

func TestSystemWithContexts(t *testing.T) {
	b := NewBuilder(200)
	contexts := []entity.DocumentContext{
		{Title: "Física", Summary: "resumen", Content: "las leyes de Newton"},
	}

	system := b.System("1. Física (chunks: 1)", &entity.Directive{Action: entity.DirectiveSummarize}, contexts)

	assert.Contains(t, system, assistantPreamble)
	assert.Contains(t, system, "DOCUMENTOS DEL ESTUDIANTE:")
	assert.Contains(t, system, "CONTEXTO RELEVANTE ENCONTRADO:")
	assert.Contains(t, system, "1. Documento: Física")
	assert.Contains(t, system, "las leyes de Newton")
	assert.Contains(t, system, groundingNote)
	assert.NotContains(t, system, noDocumentsNote)
}

func TestSystemWithoutContexts(t *testing.T) {
	b := NewBuilder(200)

	system := b.System("", nil, nil)

	assert.Contains(t, system, noDocumentsNote)
	assert.NotContains(t, system, "CONTEXTO RELEVANTE ENCONTRADO:")
	assert.NotContains(t, system, "DOCUMENTOS DEL ESTUDIANTE:")
}

func TestSystemOrder(t *testing.T) {
	b := NewBuilder(200)
	contexts := []entity.DocumentContext{{Title: "Física", Content: "contenido"}}

	system := b.System("listado", &entity.Directive{Action: entity.DirectiveUse}, contexts)

	overviewIdx := strings.Index(system, "DOCUMENTOS DEL ESTUDIANTE:")
	contextIdx := strings.Index(system, "CONTEXTO RELEVANTE ENCONTRADO:")
	require.GreaterOrEqual(t, overviewIdx, 0)
	require.GreaterOrEqual(t, contextIdx, 0)
	assert.Less(t, overviewIdx, contextIdx)
}
