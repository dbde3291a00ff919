package render

import (
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Field is one label/value pair on a course-info page. Order is preserved.
type Field struct {
	Label string
	Value string
}

// scaffold pages render to exactly one PDF page each.

// WriteCover writes a cover page: large centered title with a subtitle and
// generation timestamp below.
func WriteCover(path, title, subtitle string, at time.Time) error {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 32)
	pdf.SetY(pageHeight / 3)
	pdf.CellFormat(0, 40, tr(title), "", 1, "C", false, 0, "")
	if subtitle != "" {
		pdf.SetFont("Helvetica", "", 16)
		pdf.CellFormat(0, 24, tr(subtitle), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetY(pageHeight - 2*margin)
	pdf.CellFormat(0, 14, "Generated: "+Timestamp(at), "", 1, "C", false, 0, "")
	return finish(pdf, path)
}

// WriteCourseInfo writes a metadata page of "label:" / value rows in the
// order given.
func WriteCourseInfo(path, title string, fields []Field) error {
	d := NewDoc()
	d.Title(title)
	d.pdf.Ln(24)
	for _, f := range fields {
		d.FieldRow(f.Label, f.Value)
	}
	return d.WriteFile(path)
}

// WriteIndex writes a numbered index of entries. Long indices paginate: when
// the cursor passes the bottom safe margin a new page starts at the top
// margin.
func WriteIndex(path, title string, entries []string) error {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 30, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(16)

	lineH := 20.0
	pdf.SetFont("Helvetica", "", 12)
	for i, entry := range entries {
		if pdf.GetY()+lineH > pageHeight-margin {
			pdf.AddPage()
			pdf.SetY(margin)
			pdf.SetFont("Helvetica", "", 12)
		}
		pdf.CellFormat(0, lineH, tr(fmt.Sprintf("%d. %s", i+1, entry)), "", 1, "L", false, 0, "")
	}
	return finish(pdf, path)
}

// WriteDivider writes a section divider: centered bold title two inches from
// the top, generation timestamp beneath.
func WriteDivider(path, title string, at time.Time) error {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetY(2 * margin)
	pdf.CellFormat(0, 30, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 20, "Generated: "+Timestamp(at), "", 1, "C", false, 0, "")
	return finish(pdf, path)
}

// WriteError writes a one-page error marker naming the failed file and the
// reason, near the top of the page.
func WriteError(path, filename, message string) error {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 18, tr("Error processing file: "+filename), "", "L", false)
	pdf.MultiCell(0, 18, tr("Error: "+message), "", "L", false)
	return finish(pdf, path)
}

// WritePlaceholder writes a one-page placeholder carrying a single message
// (missing checklist references, disallowed types inside checklist flows).
func WritePlaceholder(path, message string) error {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 18, tr(message), "", "L", false)
	return finish(pdf, path)
}

func finish(pdf *gofpdf.Fpdf, path string) error {
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
