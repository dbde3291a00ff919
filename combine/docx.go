package combine

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hazyhaar/docmerge/docpipe"
	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/ooxml"
)

// Display width for images embedded in the docx output.
const docxImageInches = 6.0

// combineDocx folds every input into one Word document. Each file opens
// with a numbered level-1 heading, content follows per format, and a page
// break separates consecutive files.
func (a *Assembler) combineDocx(ar *Arena, files []InputFile) (string, error) {
	d := ooxml.NewDocx()
	for i, f := range files {
		d.AddHeading(fmt.Sprintf("File %d: %s", i+1, f.Name), 1)
		if err := a.appendDocxContent(d, f); err != nil {
			d.AddParagraph("Error processing this file: " + a.contained(ar, f.Name, err))
		}
		if i < len(files)-1 {
			d.AddPageBreak()
		}
	}
	out := filepath.Join(ar.Dir, "combined.docx")
	if err := d.WriteFile(out); err != nil {
		return "", &AssemblyError{Stage: "write docx", Err: err}
	}
	return out, nil
}

func (a *Assembler) appendDocxContent(d *ooxml.Docx, f InputFile) error {
	switch f.Kind {
	case doctype.Pdf:
		pages, err := a.pipe.ExtractPDFPages(f.Path)
		if err != nil {
			return err
		}
		for _, pg := range pages {
			d.AddHeading(fmt.Sprintf("Page %d", pg.Number), 2)
			for _, line := range docpipe.NonBlankLines(pg.Text) {
				d.AddParagraph(line)
			}
		}
	case doctype.Docx:
		return a.copyDocx(d, f.Path)
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
			d.AddHeading(fmt.Sprintf("Slide %d", slide.Index), 2)
			for _, item := range slide.Items {
				for _, line := range docpipe.NonBlankLines(item) {
					d.AddParagraph(line)
				}
			}
		}
	case doctype.Text:
		doc, err := a.pipe.ExtractText(f.Path)
		if err != nil {
			return err
		}
		for _, b := range doc.Blocks {
			if tb, ok := b.(docpipe.TextBlock); ok {
				for _, line := range docpipe.NonBlankLines(tb.Text) {
					d.AddParagraph(line)
				}
			}
		}
	case doctype.Image:
		return a.embedDocxImage(d, f)
	default:
		return fmt.Errorf("unsupported input format for %s", f.Name)
	}
	return nil
}

// copyDocx copies a source Word document block by block: heading styles map
// onto the output heading levels, tables are copied cell by cell, and
// embedded images are re-embedded after the text.
func (a *Assembler) copyDocx(d *ooxml.Docx, path string) error {
	doc, err := a.pipe.ExtractDocx(path)
	if err != nil {
		return err
	}
	for _, b := range doc.Blocks {
		switch b := b.(type) {
		case docpipe.TextBlock:
			if lvl := docpipe.HeadingLevel(b.Style); lvl > 0 {
				d.AddHeading(b.Text, lvl)
			} else {
				d.AddParagraph(b.Text)
			}
		case docpipe.TableBlock:
			d.AddTable(b.Rows)
		}
	}
	images, err := a.pipe.ExtractDocxImages(path)
	if err != nil {
		a.logger.Debug("embedded image extraction failed", "file", path, "error", err)
		return nil
	}
	for _, img := range images {
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.Name)), ".")
		if err := d.AddImage(img.Data, format, img.Width, img.Height, docxImageInches); err != nil {
			d.AddParagraph("[image: " + filepath.Base(img.Name) + "]")
		}
	}
	return nil
}

// embedDocxImage embeds an uploaded image at a fixed display width. A file
// that does not decode degrades to a bracketed placeholder line rather than
// failing the whole input.
func (a *Assembler) embedDocxImage(d *ooxml.Docx, f InputFile) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		a.logger.Debug("image decode failed", "file", f.Name, "error", err)
		d.AddParagraph("[image: " + f.Name + "]")
		return nil
	}
	if err := d.AddImage(data, format, cfg.Width, cfg.Height, docxImageInches); err != nil {
		d.AddParagraph("[image: " + f.Name + "]")
	}
	return nil
}
