package services

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedFormat is returned for documents that are neither PDF nor DOCX.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// SupportedExtensions lists the document extensions the extractor can read.
var SupportedExtensions = []string{".pdf", ".docx"}

type TextExtractor interface {
	// ExtractText returns the normalized text of the document at path.
	ExtractText(path string) (string, error)
	ExtractFile(path string) (*ExtractedText, error)
	ExtractBytes(filename string, data []byte) (*ExtractedText, error)
}

// ExtractedText holds both renditions of a document. Raw keeps line breaks
// for line based heuristics, Text is the normalized form used for scoring.
type ExtractedText struct {
	Raw  string
	Text string
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// IsSupported reports whether filename has an extension the extractor handles.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ExtractText implements TextExtractor.
func (e *textExtractor) ExtractText(path string) (string, error) {
	extracted, err := e.ExtractFile(path)
	if err != nil {
		return "", err
	}
	return extracted.Text, nil
}

// ExtractFile implements TextExtractor.
func (e *textExtractor) ExtractFile(path string) (*ExtractedText, error) {
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return e.ExtractBytes(filepath.Base(path), data)
}

// ExtractBytes implements TextExtractor.
func (e *textExtractor) ExtractBytes(filename string, data []byte) (*ExtractedText, error) {
	var (
		raw string
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		raw, err = extractPDF(data)
	case ".docx":
		raw, err = extractDOCX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return &ExtractedText{
		Raw:  raw,
		Text: NormalizeText(raw),
	}, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, keep the rest of the document
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]*>`)
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse DOCX: %w", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText turns document.xml into plain text, one paragraph per line.
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, " ")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

var (
	newlineRun    = regexp.MustCompile(`\n+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// NormalizeText collapses newline and whitespace runs into single spaces and lowercases the result.
func NormalizeText(text string) string {
	text = norm.NFKC.String(text)
	text = newlineRun.ReplaceAllString(text, " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.ToLower(text)
}
