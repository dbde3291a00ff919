// Package render generates PDF documents: the scaffold pages used by the
// assembly engine (covers, dividers, indices, error and placeholder pages)
// and the paragraph/table/image flow used by the manual conversion fallbacks.
//
// All pages are US Letter in points unless an explicit page size is given
// (image pages are sized to the image). Text is Helvetica; non-latin1
// characters are transliterated by the core-font translator.
package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 612.0 // US Letter, points
	pageHeight = 792.0
	margin     = 72.0

	bodySize    = 11.0
	bodyLead    = 14.0
	headingSize = 14.0
	titleSize   = 26.0
)

// Doc is an in-progress PDF document with a flowing cursor. It wraps the
// underlying generator so callers never touch coordinates except through
// the primitives below.
type Doc struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	images int
}

// NewDoc starts a Letter-portrait document with one open page and automatic
// pagination past the bottom margin.
func NewDoc() *Doc {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()
	return &Doc{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// Title writes a centered title line in the largest face.
func (d *Doc) Title(text string) {
	d.pdf.SetFont("Helvetica", "B", titleSize)
	d.pdf.CellFormat(0, titleSize+6, d.tr(text), "", 1, "C", false, 0, "")
}

// Heading writes a heading paragraph. Levels beyond 2 render as level 2.
func (d *Doc) Heading(text string, level int) {
	size := headingSize
	if level >= 2 {
		size = bodySize + 1
	}
	d.pdf.Ln(6)
	d.pdf.SetFont("Helvetica", "B", size)
	d.pdf.MultiCell(0, size+4, d.tr(text), "", "L", false)
	d.pdf.Ln(4)
}

// Paragraph writes a body paragraph with word wrap.
func (d *Doc) Paragraph(text string) {
	d.pdf.SetFont("Helvetica", "", bodySize)
	d.pdf.MultiCell(0, bodyLead, d.tr(text), "", "L", false)
	d.pdf.Ln(3)
}

// CenteredLine writes a single centered line in the regular face.
func (d *Doc) CenteredLine(text string, size float64) {
	d.pdf.SetFont("Helvetica", "", size)
	d.pdf.CellFormat(0, size+4, d.tr(text), "", 1, "C", false, 0, "")
}

// FieldRow writes a "label:" / value pair as two left-aligned cells.
func (d *Doc) FieldRow(label, value string) {
	d.pdf.SetFont("Helvetica", "B", bodySize+1)
	d.pdf.CellFormat(140, bodyLead+4, d.tr(label+":"), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", bodySize+1)
	d.pdf.MultiCell(0, bodyLead+4, d.tr(value), "", "L", false)
	d.pdf.Ln(2)
}

// Table draws a grid with a grey bold header row and beige body rows. All
// cells get a 1pt border; text is left-aligned and vertically centered.
func (d *Doc) Table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return
	}

	usable := pageWidth - 2*margin
	colW := usable / float64(cols)
	rowH := 24.0

	d.pdf.Ln(8)
	d.pdf.SetLineWidth(1)
	d.pdf.SetDrawColor(0, 0, 0)

	for i, row := range rows {
		if i == 0 {
			d.pdf.SetFont("Helvetica", "B", 12)
			d.pdf.SetFillColor(128, 128, 128)
			d.pdf.SetTextColor(245, 245, 245)
		} else {
			d.pdf.SetFont("Helvetica", "", 10)
			d.pdf.SetFillColor(245, 245, 220)
			d.pdf.SetTextColor(0, 0, 0)
		}
		for c := 0; c < cols; c++ {
			var cell string
			if c < len(row) {
				cell = row[c]
			}
			last := 0
			if c == cols-1 {
				last = 1
			}
			d.pdf.CellFormat(colW, rowH, d.tr(cell), "1", last, "LM", true, 0, "")
		}
	}
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.Ln(8)
}

// Image decodes and embeds an image into the flow, scaled to fit within
// maxW×maxH points while preserving aspect ratio.
func (d *Doc) Image(data []byte, maxW, maxH float64) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	w, h := FitBox(float64(b.Dx()), float64(b.Dy()), maxW, maxH)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}

	d.images++
	name := fmt.Sprintf("img%d", d.images)
	d.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	d.pdf.Ln(8)
	d.pdf.ImageOptions(name, d.pdf.GetX(), d.pdf.GetY(), w, h, true, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	d.pdf.Ln(8)
	return d.pdf.Error()
}

// PageBreak starts a new page.
func (d *Doc) PageBreak() {
	d.pdf.AddPage()
}

// WriteFile finalizes the document to path.
func (d *Doc) WriteFile(path string) error {
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// FitBox scales a w×h box to fit within maxW×maxH, preserving aspect ratio.
// Landscape content fits to width first, portrait to height; the result is
// then clamped so neither dimension exceeds its bound.
func FitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	aspect := w / h
	var fw, fh float64
	if w > h {
		fw = maxW
		fh = fw / aspect
	} else {
		fh = maxH
		fw = fh * aspect
	}
	if fh > maxH {
		fw, fh = maxH*aspect, maxH
	}
	if fw > maxW {
		fw, fh = maxW, maxW/aspect
	}
	return fw, fh
}

// WriteImagePage writes a single-page PDF sized to the image itself
// (96 px/inch), used by the image→PDF converter. The image must already be
// flattened to an opaque color model.
func WriteImagePage(path string, pngData []byte, wpx, hpx int) error {
	if wpx <= 0 || hpx <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", wpx, hpx)
	}
	wpt := float64(wpx) * 72.0 / 96.0
	hpt := float64(hpx) * 72.0 / 96.0

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wpt, Ht: hpt},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.RegisterImageOptionsReader("page", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(pngData))
	pdf.ImageOptions("page", 0, 0, wpt, hpt, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write image pdf: %w", err)
	}
	return nil
}

// Timestamp formats a scaffold-page timestamp.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
