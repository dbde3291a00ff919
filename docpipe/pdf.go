package docpipe

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFPages extracts per-page text from a PDF, page order preserved.
// Pages that yield no text produce an empty entry so page numbering stays
// aligned with the source. Extraction is text-only: layout, fonts and images
// are not represented.
func (p *Pipeline) ExtractPDFPages(path string) (pages []PDFPage, err error) {
	if err := p.checkSize(path); err != nil {
		return nil, &ExtractionError{File: path, Err: err}
	}

	// The pdf reader panics on malformed cross-reference tables; fold that
	// into the normal extraction error path.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &ExtractionError{File: path, Err: fmt.Errorf("pdf parse: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("open pdf: %w", err)}
	}
	defer f.Close()

	total := reader.NumPage()
	if total == 0 {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("pdf has no pages")}
	}

	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		var text string
		if !page.V.IsNull() {
			if t, err := page.GetPlainText(nil); err == nil {
				text = strings.TrimSpace(t)
			} else {
				p.logger.Debug("page text extraction failed", "path", path, "page", i, "error", err)
			}
		}
		pages = append(pages, PDFPage{Number: i, Text: text})
	}

	return pages, nil
}
