// Package pdfinfo inspects PDF files produced by the rasterizer.
package pdfinfo

import (
	"errors"
	"fmt"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/pagetree"
)

// PageCount opens the PDF at path and returns its number of pages.
// An unreadable file or a document without pages is an error.
func PageCount(path string) (int, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer r.Close()

	n, err := pagetree.NumPages(r)
	if err != nil {
		return 0, fmt.Errorf("read page tree: %w", err)
	}
	if n == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return n, nil
}

// WriteBlank writes a PDF with the given number of empty Letter pages.
func WriteBlank(path string, pages int) error {
	doc, err := document.CreateMultiPage(path, document.Letter.URx, document.Letter.URy)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	for i := 0; i < pages; i++ {
		if err := doc.AddPage().Close(); err != nil {
			return fmt.Errorf("write page %d: %w", i+1, err)
		}
	}
	return doc.Close()
}
