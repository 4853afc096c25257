// Package chunker splits normalized document text into bounded-size
// segments for embedding and retrieval.
package chunker

import "strings"

// Split breaks text into chunks of at most targetSize characters,
// paragraph-first. A single paragraph larger than targetSize is not split
// at this stage; when that leaves any chunk at twice the target or more
// (or no chunks at all) the text is re-split on sentence boundaries. As a last
// resort the whole text becomes one chunk.
//
// The output is non-empty iff the trimmed input is non-empty, chunks keep
// the original order, and no chunk is empty after trimming.
func Split(text string, targetSize int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks := splitByParagraphs(text, targetSize)

	needsResplit := len(chunks) == 0
	for _, c := range chunks {
		if len(c) >= targetSize*2 {
			needsResplit = true
			break
		}
	}
	if needsResplit {
		if sentenceChunks := splitBySentences(text, targetSize); len(sentenceChunks) > 0 {
			return sentenceChunks
		}
		return []string{strings.TrimSpace(text)}
	}

	return chunks
}

func splitByParagraphs(text string, targetSize int) []string {
	var chunks []string
	var current strings.Builder

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		// +2 accounts for the paragraph separator
		if current.Len() > 0 && current.Len()+2+len(paragraph) > targetSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}

	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

func splitBySentences(text string, targetSize int) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		sentence += "."

		if current.Len() > 0 && current.Len()+1+len(sentence) > targetSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}

	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}
