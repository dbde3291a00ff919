package combine

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/docmerge/docpipe"
	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/ooxml"
	"github.com/hazyhaar/docmerge/render"
)

// slideTextCap is the maximum number of characters carried onto one slide.
// Longer content is cut silently, matching slide real estate rather than
// trying to paginate.
const slideTextCap = 2000

// combinePptx folds every input into one presentation: a generated title
// slide, then per input a section slide followed by the input's content
// slides.
func (a *Assembler) combinePptx(ar *Arena, files []InputFile) (string, error) {
	d := ooxml.NewPptx()

	title := d.AddSlide()
	title.AddTextBox(ooxml.Inches(0.5), ooxml.Inches(2.5), ooxml.Inches(9), ooxml.Inches(1.5),
		[]string{"Combined Documents"}, 40, true)
	title.AddTextBox(ooxml.Inches(0.5), ooxml.Inches(4.2), ooxml.Inches(9), ooxml.Inches(0.8),
		[]string{"Generated: " + render.Timestamp(time.Now())}, 16, false)

	for i, f := range files {
		section := d.AddSlide()
		section.AddTextBox(ooxml.Inches(0.5), ooxml.Inches(3), ooxml.Inches(9), ooxml.Inches(1.5),
			[]string{fmt.Sprintf("File %d: %s", i+1, f.Name)}, 32, true)
		if err := a.appendPptxContent(d, f); err != nil {
			slide := d.AddSlide()
			slide.AddTextBox(ooxml.Inches(0.5), ooxml.Inches(2.5), ooxml.Inches(9), ooxml.Inches(2),
				[]string{"Error processing this file: " + a.contained(ar, f.Name, err)}, 20, false)
		}
	}

	out := filepath.Join(ar.Dir, "combined.pptx")
	if err := d.WriteFile(out); err != nil {
		return "", &AssemblyError{Stage: "write pptx", Err: err}
	}
	return out, nil
}

func (a *Assembler) appendPptxContent(d *ooxml.Pptx, f InputFile) error {
	switch f.Kind {
	case doctype.Pdf:
		pages, err := a.pipe.ExtractPDFPages(f.Path)
		if err != nil {
			return err
		}
		for _, pg := range pages {
			addTextSlide(d, fmt.Sprintf("Page %d", pg.Number), pg.Text)
		}
	case doctype.Docx:
		doc, err := a.pipe.ExtractDocx(f.Path)
		if err != nil {
			return err
		}
		var lines []string
		for _, b := range doc.Blocks {
			if tb, ok := b.(docpipe.TextBlock); ok {
				lines = append(lines, tb.Text)
			}
		}
		addTextSlide(d, "", strings.Join(lines, "\n"))
	case doctype.Pptx:
		doc, err := a.pipe.ExtractPptx(f.Path)
		if err != nil {
			return err
		}
		for _, b := range doc.Blocks {
			slide, ok := b.(docpipe.SlideBlock)
			if !ok {
				continue
			}
			out := d.AddSlide()
			y := 0.3
			for _, item := range slide.Items {
				out.AddTextBox(ooxml.Inches(0.5), ooxml.Inches(y), ooxml.Inches(9), ooxml.Inches(1.2),
					strings.Split(item, "\n"), 18, false)
				y += 1.3
			}
		}
	case doctype.Text:
		doc, err := a.pipe.ExtractText(f.Path)
		if err != nil {
			return err
		}
		for _, b := range doc.Blocks {
			if tb, ok := b.(docpipe.TextBlock); ok {
				addTextSlide(d, "", tb.Text)
			}
		}
	case doctype.Image:
		return a.imageSlide(d, f)
	default:
		return fmt.Errorf("unsupported input format for %s", f.Name)
	}
	return nil
}

// addTextSlide places capped body text on a fresh slide, with an optional
// heading box above it.
func addTextSlide(d *ooxml.Pptx, heading, body string) {
	slide := d.AddSlide()
	bodyY := 0.4
	if heading != "" {
		slide.AddTextBox(ooxml.Inches(0.5), ooxml.Inches(0.4), ooxml.Inches(9), ooxml.Inches(0.9),
			[]string{heading}, 28, true)
		bodyY = 1.5
	}
	lines := docpipe.NonBlankLines(truncateRunes(body, slideTextCap))
	slide.AddTextBox(ooxml.Inches(0.5), ooxml.Inches(bodyY), ooxml.Inches(9), ooxml.Inches(7-bodyY),
		lines, 16, false)
}

// imageSlide centers an uploaded image on its own slide, scaled
// aspect-preserving into the slide body area.
func (a *Assembler) imageSlide(d *ooxml.Pptx, f InputFile) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", f.Name, err)
	}
	maxW, maxH := 9.0, 6.5
	w, h := render.FitBox(float64(cfg.Width), float64(cfg.Height), maxW*96, maxH*96)
	cx, cy := ooxml.Inches(w/96), ooxml.Inches(h/96)
	x := (ooxml.SlideWidth - cx) / 2
	y := (ooxml.SlideHeight - cy) / 2
	slide := d.AddSlide()
	slide.AddPicture(data, format, x, y, cx, cy)
	return nil
}
