// Package textutil holds the text normalization shared by ingestion and
// query matching.
package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxTitleLineLen = 100

var (
	crlfRe       = regexp.MustCompile(`\r\n?`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	spaceRuns    = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean normalizes line endings and whitespace of extracted text.
// Paragraph breaks (blank lines) are preserved so the chunker can split
// on them.
func Clean(text string) string {
	text = crlfRe.ReplaceAllString(text, "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Title picks a document title: the first non-empty line of cleaned
// content when it is short enough, otherwise the file's base name
// without extension.
func Title(filename, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) < maxTitleLineLen {
			return line
		}
		break
	}

	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases the text and strips diacritics, so that "Resumé" and
// "resume" compare equal during keyword and title matching.
func Fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Truncate cuts text to at most limit bytes without splitting a
// multibyte rune, backing off to the previous rune start when the limit
// falls inside one.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// Tokens splits folded text into word tokens.
func Tokens(text string) []string {
	return strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
