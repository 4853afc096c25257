package directive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	docs    []entity.Document
	chunks  map[string][]entity.Chunk
	listErr error
}

func (f *fakeStore) ListRecent(_ context.Context, _ string, limit int) ([]entity.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.docs) > limit {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

func (f *fakeStore) GetChunksOrdered(_ context.Context, documentID string) ([]entity.Chunk, error) {
	return f.chunks[documentID], nil
}

func doc(id, title string) entity.Document {
	return entity.Document{ID: id, StudentID: "student-1", Title: title}
}

func chunksOf(docID string, contents ...string) []entity.Chunk {
	chunks := make([]entity.Chunk, 0, len(contents))
	for i, content := range contents {
		chunks = append(chunks, entity.Chunk{
			ID:         docID + "-c" + string(rune('0'+i)),
			DocumentID: docID,
			ChunkIndex: i + 1,
			Content:    content,
		})
	}
	return chunks
}

func TestBudgetedContentJoinsChunks(t *testing.T) {
	chunks := chunksOf("d1", "uno", "dos", "tres")

	assert.Equal(t, "uno\n\ndos\n\ntres", BudgetedContent(chunks, 1000))
}

func TestBudgetedContentTruncatesAtBudget(t *testing.T) {
	chunks := chunksOf("d1", strings.Repeat("a", 10), strings.Repeat("b", 10))

	content := BudgetedContent(chunks, 15)

	assert.Len(t, content, 15)
	assert.True(t, strings.HasPrefix(content, strings.Repeat("a", 10)+"\n\n"))
}

func TestBudgetedContentTruncatesOnRuneBoundary(t *testing.T) {
	// A budget of 2 falls inside the "í" of "física"; the cut backs off
	// to the previous rune start instead of emitting a broken byte.
	chunks := chunksOf("d1", "física cuántica")

	content := BudgetedContent(chunks, 2)

	assert.True(t, utf8.ValidString(content))
	assert.Equal(t, "f", content)
}

func TestBudgetedContentEmpty(t *testing.T) {
	assert.Empty(t, BudgetedContent(nil, 100))
}

func TestFullOverviewResolverLoadsRecentSet(t *testing.T) {
	store := &fakeStore{
		docs: []entity.Document{doc("d1", "Física"), doc("d2", "Historia")},
		chunks: map[string][]entity.Chunk{
			"d1": chunksOf("d1", "mecánica clásica"),
			"d2": chunksOf("d2", "revolución industrial"),
		},
	}
	r := NewFullOverviewResolver(store, 10, 3000)

	contexts, err := r.Resolve(context.Background(), "student-1", entity.Directive{Action: entity.DirectiveSummarize})

	require.NoError(t, err)
	require.Len(t, contexts, 2)
	assert.Equal(t, "Física", contexts[0].Title)
	assert.Equal(t, "mecánica clásica", contexts[0].Content)
	assert.Equal(t, "Historia", contexts[1].Title)
}

func TestFullOverviewResolverHonorsLimit(t *testing.T) {
	store := &fakeStore{
		docs:   []entity.Document{doc("d1", "A"), doc("d2", "B"), doc("d3", "C")},
		chunks: map[string][]entity.Chunk{},
	}
	r := NewFullOverviewResolver(store, 2, 3000)

	contexts, err := r.Resolve(context.Background(), "student-1", entity.Directive{Action: entity.DirectiveUse})

	require.NoError(t, err)
	assert.Len(t, contexts, 2)
}

func TestFullOverviewResolverPropagatesStoreError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	r := NewFullOverviewResolver(store, 10, 3000)

	_, err := r.Resolve(context.Background(), "student-1", entity.Directive{Action: entity.DirectiveUse})

	assert.Error(t, err)
}

func TestQueryMatchResolverPicksBestTitle(t *testing.T) {
	store := &fakeStore{
		docs: []entity.Document{
			doc("d1", "Apuntes de Física"),
			doc("d2", "Historia de México"),
		},
		chunks: map[string][]entity.Chunk{
			"d1": chunksOf("d1", "mecánica"),
			"d2": chunksOf("d2", "independencia"),
		},
	}
	r := NewQueryMatchResolver(store, 10, 3000, 0.35)

	contexts, err := r.Resolve(context.Background(), "student-1",
		entity.Directive{Action: entity.DirectiveSummarize, Target: "fisica"})

	require.NoError(t, err)
	require.Len(t, contexts, 1)
	assert.Equal(t, "d1", contexts[0].DocumentID)
}

func TestQueryMatchResolverEmptyTargetFallsBackToFullSet(t *testing.T) {
	store := &fakeStore{
		docs:   []entity.Document{doc("d1", "Física"), doc("d2", "Historia")},
		chunks: map[string][]entity.Chunk{},
	}
	r := NewQueryMatchResolver(store, 10, 3000, 0.35)

	contexts, err := r.Resolve(context.Background(), "student-1",
		entity.Directive{Action: entity.DirectiveUse, Target: ""})

	require.NoError(t, err)
	assert.Len(t, contexts, 2)
}

func TestQueryMatchResolverNoMatchBelowFloor(t *testing.T) {
	store := &fakeStore{
		docs:   []entity.Document{doc("d1", "Apuntes de Física")},
		chunks: map[string][]entity.Chunk{},
	}
	r := NewQueryMatchResolver(store, 10, 3000, 0.35)

	contexts, err := r.Resolve(context.Background(), "student-1",
		entity.Directive{Action: entity.DirectiveUse, Target: "recetas de cocina"})

	require.NoError(t, err)
	assert.Empty(t, contexts)
}

func TestTitleMatchScoreContainment(t *testing.T) {
	score := TitleMatchScore("fisica", "Apuntes de Física")

	// Folded containment scored by length ratio.
	assert.InDelta(t, 6.0/17.0, score, 1e-9)
}

func TestTitleMatchScoreExactTitle(t *testing.T) {
	assert.InDelta(t, 1.0, TitleMatchScore("Apuntes de Física", "Apuntes de Física"), 1e-9)
}

func TestTitleMatchScoreTokenOverlap(t *testing.T) {
	score := TitleMatchScore("fisica cuantica teoria", "Introducción Física Cuántica")

	// 2 shared tokens over max(3, 3), no prefix bonus.
	assert.InDelta(t, 2.0/3.0, score, 1e-9)
}

func TestTitleMatchScoreUnrelated(t *testing.T) {
	assert.Less(t, TitleMatchScore("recetas de cocina", "Apuntes de Física"), 0.35)
}

func TestTitleMatchScoreEmpty(t *testing.T) {
	assert.Zero(t, TitleMatchScore("", "Física"))
	assert.Zero(t, TitleMatchScore("física", ""))
}
