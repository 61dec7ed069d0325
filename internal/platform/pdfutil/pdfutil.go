// Package pdfutil extracts plain text from uploaded PDF documents and
// slices it into overlapping word windows for downstream generation.
package pdfutil

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText indicates the document contained no extractable text, for
// example a scanned PDF without an OCR layer.
var ErrNoText = errors.New("no extractable text in document")

// Extractor reads text out of PDF files on disk.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the concatenated plain text of every page in the
// PDF at path.
func (e *Extractor) ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// SlidingWindowChunks splits text into overlapping windows of windowSize
// words, advancing stepSize words between windows. A text shorter than one
// window yields a single chunk containing all of it. The final partial
// window is included so trailing words are never dropped.
func SlidingWindowChunks(text string, windowSize, stepSize int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if windowSize < 1 {
		windowSize = 1
	}
	if stepSize < 1 {
		stepSize = 1
	}

	if len(words) <= windowSize {
		return []string{strings.Join(words, " ")}
	}

	var chunks []string
	for start := 0; start < len(words); start += stepSize {
		end := start + windowSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
