package directive

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/rag/textutil"
)

// DocumentStore is the persistence surface resolvers need.
type DocumentStore interface {
	ListRecent(ctx context.Context, studentID string, limit int) ([]entity.Document, error)
	GetChunksOrdered(ctx context.Context, documentID string) ([]entity.Chunk, error)
}

// Resolver maps a fired directive to the documents whose content should
// be loaded into the model context. Two strategies exist: FullOverview
// supplies the whole recent set and lets the model pick from the
// enumerated overview; QueryMatch fuzzy-matches the utterance's free-text
// target against titles.
type Resolver interface {
	Resolve(ctx context.Context, studentID string, directive entity.Directive) ([]entity.DocumentContext, error)
}

// BudgetedContent concatenates ordered chunks up to budget characters,
// truncating the last chunk that crosses the budget rather than dropping
// it. Chunks are joined with blank lines and never reordered.
func BudgetedContent(chunks []entity.Chunk, budget int) string {
	var sb strings.Builder

	for _, chunk := range chunks {
		if sb.Len() >= budget {
			break
		}

		content := chunk.Content
		if sb.Len() > 0 {
			content = "\n\n" + content
		}

		if remaining := budget - sb.Len(); len(content) > remaining {
			content = textutil.Truncate(content, remaining)
		}
		sb.WriteString(content)
	}

	return sb.String()
}

// FullOverviewResolver loads the student's recent document set, bounded
// by limit. The instruction sentence in the prompt then asks the model to
// pick the right document from the enumerated overview.
type FullOverviewResolver struct {
	store  DocumentStore
	limit  int
	budget int
}

func NewFullOverviewResolver(store DocumentStore, limit, budget int) *FullOverviewResolver {
	return &FullOverviewResolver{
		store:  store,
		limit:  limit,
		budget: budget,
	}
}

func (r *FullOverviewResolver) Resolve(ctx context.Context, studentID string, _ entity.Directive) ([]entity.DocumentContext, error) {
	docs, err := r.store.ListRecent(ctx, studentID, r.limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return buildContexts(ctx, r.store, docs, r.budget)
}

// QueryMatchResolver fuzzy-matches the directive's free-text target
// against document titles: exact substring containment scored by length
// ratio, otherwise token-overlap ratio plus a prefix bonus, with an
// acceptance floor.
type QueryMatchResolver struct {
	store     DocumentStore
	limit     int
	budget    int
	threshold float64
}

func NewQueryMatchResolver(store DocumentStore, limit, budget int, threshold float64) *QueryMatchResolver {
	return &QueryMatchResolver{
		store:     store,
		limit:     limit,
		budget:    budget,
		threshold: threshold,
	}
}

func (r *QueryMatchResolver) Resolve(ctx context.Context, studentID string, directive entity.Directive) ([]entity.DocumentContext, error) {
	docs, err := r.store.ListRecent(ctx, studentID, r.limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	if strings.TrimSpace(directive.Target) == "" {
		// Nothing to match against; fall back to the whole recent set.
		return buildContexts(ctx, r.store, docs, r.budget)
	}

	type scored struct {
		doc   entity.Document
		score float64
	}

	var matches []scored
	for _, doc := range docs {
		if score := TitleMatchScore(directive.Target, doc.Title); score >= r.threshold {
			matches = append(matches, scored{doc: doc, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	matched := make([]entity.Document, 0, len(matches))
	for _, m := range matches {
		matched = append(matched, m.doc)
	}

	return buildContexts(ctx, r.store, matched, r.budget)
}

// TitleMatchScore rates how well a free-text query names a document
// title, in [0,1].
func TitleMatchScore(query, title string) float64 {
	q := textutil.Fold(strings.TrimSpace(query))
	t := textutil.Fold(strings.TrimSpace(title))
	if q == "" || t == "" {
		return 0
	}

	// Exact containment either way, scored by length ratio so that a
	// query naming most of the title beats one naming a fragment.
	if strings.Contains(t, q) {
		return float64(len(q)) / float64(len(t))
	}
	if strings.Contains(q, t) {
		return float64(len(t)) / float64(len(q))
	}

	qTokens := textutil.Tokens(q)
	tTokens := textutil.Tokens(t)
	if len(qTokens) == 0 || len(tTokens) == 0 {
		return 0
	}

	titleSet := make(map[string]bool, len(tTokens))
	for _, token := range tTokens {
		titleSet[token] = true
	}

	common := 0
	for _, token := range qTokens {
		if titleSet[token] {
			common++
		}
	}

	score := float64(common) / float64(max(len(qTokens), len(tTokens)))

	if strings.HasPrefix(t, qTokens[0]) {
		score += 0.15
	}

	if score > 1 {
		score = 1
	}
	return score
}

func buildContexts(ctx context.Context, store DocumentStore, docs []entity.Document, budget int) ([]entity.DocumentContext, error) {
	contexts := make([]entity.DocumentContext, 0, len(docs))

	for _, doc := range docs {
		chunks, err := store.GetChunksOrdered(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("load chunks for %s: %w", doc.ID, err)
		}

		dc := entity.DocumentContext{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Content:    BudgetedContent(chunks, budget),
		}
		if doc.Summary != nil {
			dc.Summary = *doc.Summary
		}

		contexts = append(contexts, dc)
	}

	return contexts, nil
}
