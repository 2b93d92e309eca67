package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int

	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		object(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>",
			5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtractPages(t *testing.T) {
	extractor := NewPDFExtractor()

	pages, err := extractor.ExtractPages(context.Background(), buildPDF("Hello", "World"))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0], "Hello")
	assert.Contains(t, pages[1], "World")
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText(context.Background(), NewPDFExtractor(), buildPDF("First", "Second"))
	require.NoError(t, err)
	assert.Contains(t, text, "First")
	assert.Contains(t, text, PageSeparator)
	assert.Contains(t, text, "Second")
}

func TestExtractPagesInvalid(t *testing.T) {
	extractor := NewPDFExtractor()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a pdf", data: []byte("just some text")},
		{name: "truncated", data: buildPDF("Hello")[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.ExtractPages(context.Background(), tt.data)
			assert.ErrorIs(t, err, ErrInvalidPDF)
		})
	}
}

func TestExtractPagesFailsOnUndecodablePage(t *testing.T) {
	extractor := NewPDFExtractor()
	extractor.pageText = func(page pdf.Page, fonts map[string]*pdf.Font) (string, error) {
		return "", errors.New("malformed content stream")
	}

	pages, err := extractor.ExtractPages(context.Background(), buildPDF("Hello", "World"))
	require.ErrorIs(t, err, ErrInvalidPDF)
	assert.Contains(t, err.Error(), "page 1")
	assert.Contains(t, err.Error(), "malformed content stream")
	assert.Nil(t, pages)
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "", JoinPages(nil))
	assert.Equal(t, "a", JoinPages([]string{"a"}))
	assert.Equal(t, "a\n\n\n\nc", JoinPages([]string{"a", "", "c"}))
}
