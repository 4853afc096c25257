// Package directive detects document-specific intents in user messages
// and resolves which documents they refer to.
package directive

import (
	"regexp"
	"strings"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/rag/textutil"
)

// Keyword families are matched against the folded (lowercased,
// diacritic-stripped) utterance. Summarize wins when both match.
var (
	summarizeRe = regexp.MustCompile(`\b(resum\w*|sintetiza\w*|sintetizar)\b`)
	useRe       = regexp.MustCompile(`\b(usa|usar|usando|utiliza\w*|consulta\w*|basate|basarse|basandote|apoyate|apoyandote)\b`)

	// Words stripped from the remainder of the utterance when deriving
	// the free-text target for the query-match resolver.
	targetStopwords = map[string]bool{
		"el": true, "la": true, "los": true, "las": true, "un": true,
		"una": true, "mi": true, "mis": true, "de": true, "del": true,
		"en": true, "sobre": true, "documento": true, "documentos": true,
		"archivo": true, "archivos": true, "apunte": true, "apuntes": true,
		"texto": true, "pdf": true, "por": true, "favor": true, "que": true,
		"subi": true, "este": true, "ese": true, "esta": true, "esa": true,
	}
)

type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect classifies the utterance. A nil result means no directive; the
// answer pipeline then relies on semantic search alone.
func (d *Detector) Detect(utterance string) *entity.Directive {
	folded := textutil.Fold(utterance)

	var action entity.DirectiveAction
	var match []int

	if loc := summarizeRe.FindStringIndex(folded); loc != nil {
		action = entity.DirectiveSummarize
		match = loc
	} else if loc := useRe.FindStringIndex(folded); loc != nil {
		action = entity.DirectiveUse
		match = loc
	} else {
		return nil
	}

	return &entity.Directive{
		Action: action,
		Target: extractTarget(folded[match[1]:]),
	}
}

// extractTarget derives a free-text document reference from what follows
// the matched verb, dropping filler words. It may come out empty; the
// full-overview resolver does not need it.
func extractTarget(rest string) string {
	var kept []string
	for _, token := range textutil.Tokens(rest) {
		if targetStopwords[token] {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
