package services

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "newlines collapse", in: "Senior\n\n\nEngineer", want: "senior engineer"},
		{name: "mixed whitespace", in: "Go \t and\r\n  SQL", want: "go and sql"},
		{name: "non breaking space", in: "Machine\u00a0Learning", want: "machine learning"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestExtractBytesUnsupportedFormat(t *testing.T) {
	t.Parallel()

	extractor := NewTextExtractor()

	for _, name := range []string{"resume.txt", "resume", "resume.doc"} {
		_, err := extractor.ExtractBytes(name, []byte("plain text"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestExtractFileUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("skills: go"), 0o644))

	_, err := NewTextExtractor().ExtractText(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractBytesDOCX(t *testing.T) {
	t.Parallel()

	data := buildDOCX(t,
		`<w:p><w:r><w:t>Job Title: Backend Engineer</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Location: Pune</w:t><w:tab/><w:t>R&amp;D</w:t></w:r></w:p>`)

	// extension dispatch is case insensitive
	extracted, err := NewTextExtractor().ExtractBytes("JD.DOCX", data)
	require.NoError(t, err)

	assert.Contains(t, extracted.Raw, "Job Title: Backend Engineer\n")
	assert.Contains(t, extracted.Raw, "Location: Pune R&D")
	assert.Equal(t, "job title: backend engineer location: pune r&d ", extracted.Text)
}

func TestExtractBytesInvalidPDF(t *testing.T) {
	t.Parallel()

	_, err := NewTextExtractor().ExtractBytes("resume.PDF", []byte("not a pdf"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSupported("a.pdf"))
	assert.True(t, IsSupported("b.Docx"))
	assert.False(t, IsSupported("c.txt"))
}
