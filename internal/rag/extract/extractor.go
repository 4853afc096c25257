// Package extract converts uploaded files into plain text, dispatched by
// file extension.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/estudia/study-backend/internal/rag/textutil"
	"github.com/unidoc/unioffice/document"
)

// ExtractedText is the result of extracting one uploaded file.
type ExtractedText struct {
	Title   string
	Content string
}

// SupportedExtensions lists the accepted upload formats.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract converts the raw file into cleaned plain text plus a title.
// Unknown extensions fail with ErrUnsupportedFormat; PDF extraction never
// fails outright, it degrades to a placeholder (see pdf.go).
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (ExtractedText, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var content string
	var err error

	switch ext {
	case ".pdf":
		content = e.extractPDF(ctx, filename, data)
	case ".docx":
		content, err = e.extractDOCX(data)
	case ".txt":
		content, err = e.extractTXT(data)
	default:
		return ExtractedText{}, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return ExtractedText{}, err
	}

	content = textutil.Clean(content)

	return ExtractedText{
		Title:   textutil.Title(filename, content),
		Content: content,
	}, nil
}

func (e *Extractor) extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", entity.ErrExtractionFailed)
	}
	return string(data), nil
}

func (e *Extractor) extractDOCX(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: read docx: %v", entity.ErrExtractionFailed, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}
