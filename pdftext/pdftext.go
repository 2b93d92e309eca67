// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pdftext extracts plain text from PDF documents, one string per page.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageSeparator joins page texts into one document text.
const PageSeparator = "\n\n"

var (
	// ErrInvalidPDF indicates that the input could not be parsed as a PDF.
	ErrInvalidPDF = errors.New("invalid pdf")
)

// Extractor turns raw PDF bytes into page texts.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// PDFExtractor implements Extractor with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	pageText func(pdf.Page, map[string]*pdf.Font) (string, error)
	logger   *slog.Logger
}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		pageText: pdf.Page.GetPlainText,
		logger:   slog.Default().With("component", "pdf-extractor"),
	}
}

// ExtractPages returns the plain text of every page in order. An empty page
// contributes an empty string. A page whose text cannot be decoded fails the
// whole document with ErrInvalidPDF.
func (e *PDFExtractor) ExtractPages(ctx context.Context, data []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}

	count := reader.NumPage()
	pages = make([]string, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := e.pageText(page, fonts)
		if err != nil {
			e.logger.Warn("failed to extract text from page", "page", i, "err", err)
			return nil, fmt.Errorf("%w: page %d: %w", ErrInvalidPDF, i, err)
		}
		pages = append(pages, text)
	}

	e.logger.Debug("extracted pdf text", "pages", count)
	return pages, nil
}

// JoinPages joins page texts with a blank line between pages.
func JoinPages(pages []string) string {
	return strings.Join(pages, PageSeparator)
}

// ExtractText extracts and joins the pages of a PDF.
func ExtractText(ctx context.Context, extractor Extractor, data []byte) (string, error) {
	pages, err := extractor.ExtractPages(ctx, data)
	if err != nil {
		return "", err
	}
	return JoinPages(pages), nil
}
